package dedup

import (
	"testing"

	"github.com/blockvault/blockvault/pkg/block"
	"github.com/blockvault/blockvault/pkg/engineconfig"
	"github.com/blockvault/blockvault/pkg/fingerprint"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	fi := fingerprint.New(true)
	cfg := engineconfig.NewStore("")
	return New(fi, cfg)
}

func TestApplyIndexesFirstOccurrence(t *testing.T) {
	p := newTestPipeline(t)
	plain := []byte("hello world")
	b := block.New(plain)

	res, err := p.Apply(b, plain)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if res.DedupHit {
		t.Error("first occurrence should not be a dedup hit")
	}
	if res.Block.ID != b.ID {
		t.Error("first occurrence should keep the same block")
	}
}

func TestApplyDedupsSecondOccurrence(t *testing.T) {
	p := newTestPipeline(t)
	plain := []byte("duplicate content")

	first := block.New(plain)
	if _, err := p.Apply(first, plain); err != nil {
		t.Fatalf("Apply(first): %v", err)
	}

	second := block.New(plain)
	res, err := p.Apply(second, plain)
	if err != nil {
		t.Fatalf("Apply(second): %v", err)
	}
	if !res.DedupHit {
		t.Fatal("second identical block should be a dedup hit")
	}
	if res.Block.ID != first.ID {
		t.Errorf("dedup hit should point at the canonical block %d, got %d", first.ID, res.Block.ID)
	}
	if res.SavedBytes != first.PlainSize {
		t.Errorf("SavedBytes = %d, want %d", res.SavedBytes, first.PlainSize)
	}
}

func TestApplySkipsDedupWhenDisabled(t *testing.T) {
	fi := fingerprint.New(true)
	cfg := engineconfig.NewStore("")
	c := cfg.Get()
	c.EnableDedup = false
	if err := cfg.Update(c); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p := New(fi, cfg)

	plain := []byte("duplicate content")
	first := block.New(plain)
	if _, err := p.Apply(first, plain); err != nil {
		t.Fatalf("Apply(first): %v", err)
	}
	second := block.New(plain)
	res, err := p.Apply(second, plain)
	if err != nil {
		t.Fatalf("Apply(second): %v", err)
	}
	if res.DedupHit {
		t.Error("dedup disabled: should never report a hit")
	}
	if res.Block.ID != second.ID {
		t.Error("dedup disabled: block identity should be unchanged")
	}
}

func TestCoWCopiesSharedBlock(t *testing.T) {
	plain := []byte("shared")
	b := block.New(plain)
	b.Inc() // refs = 2

	copied := CoW(b, plain)
	if copied.ID == b.ID {
		t.Error("CoW() on a shared block should allocate a new block")
	}
	if got := b.Refs(); got != 1 {
		t.Errorf("original block refs after CoW = %d, want 1", got)
	}
}

func TestCoWReturnsSameBlockWhenUnshared(t *testing.T) {
	plain := []byte("solo")
	b := block.New(plain)
	if got := CoW(b, plain); got != b {
		t.Error("CoW() on an unshared block should return it unchanged")
	}
}
