package version

import (
	"testing"
	"time"
)

func TestResolveTimeSelectorPicksNewestAtOrBefore(t *testing.T) {
	bm := newTestBlockMap(t)
	p := newTestDedupPipeline()
	bm.Write(0, []byte("AAAAAAAAAAAAAAAA"), nil, p)

	c := New(1)
	v1, _ := c.Create(bm, "manual", baseTime)
	bm.Write(0, []byte("CCCCCCCCCCCCCCCC"), nil, p)
	c.Create(bm, "manual", baseTime.Add(48*time.Hour))

	got, err := c.Resolve("1d", baseTime.Add(49*time.Hour))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.VersionID != v1.VersionID {
		t.Errorf("Resolve(1d) = v%d, want v%d", got.VersionID, v1.VersionID)
	}
}

func TestResolveUnknownVersionErrors(t *testing.T) {
	c := New(1)
	if _, err := c.Resolve("v99", baseTime); err == nil {
		t.Error("Resolve(v99) on an empty chain should error")
	}
}

func TestResolveLatestOnEmptyChainErrors(t *testing.T) {
	c := New(1)
	if _, err := c.Resolve("latest", baseTime); err == nil {
		t.Error("Resolve(latest) on an empty chain should error")
	}
}
