package fingerprint

import (
	"testing"

	"github.com/blockvault/blockvault/pkg/block"
)

func TestFindMissReturnsNil(t *testing.T) {
	idx := New(true)
	fp := block.Sum([]byte("nope"))
	if got := idx.Find(fp); got != nil {
		t.Errorf("Find() = %v, want nil", got)
	}
}

func TestIndexThenFind(t *testing.T) {
	idx := New(true)
	plain := []byte("content")
	b := block.New(plain)
	b.ComputeFingerprint(plain)

	idx.Index(b)

	got := idx.Find(b.Fingerprint)
	if got == nil || got.ID != b.ID {
		t.Errorf("Find() = %v, want block id %d", got, b.ID)
	}
}

func TestIndexDoesNotOverwriteCanonical(t *testing.T) {
	idx := New(true)
	plain := []byte("same content")
	first := block.New(plain)
	first.ComputeFingerprint(plain)
	idx.Index(first)

	second := block.New(plain)
	second.ComputeFingerprint(plain)
	idx.Index(second)

	got := idx.Find(first.Fingerprint)
	if got.ID != first.ID {
		t.Errorf("Find() = block %d, want canonical block %d", got.ID, first.ID)
	}
}

func TestDisabledFindReturnsNilWithoutLookup(t *testing.T) {
	idx := New(false)
	plain := []byte("content")
	b := block.New(plain)
	b.ComputeFingerprint(plain)
	idx.Index(b) // Index still records even though find won't see it while disabled

	if got := idx.Find(b.Fingerprint); got != nil {
		t.Errorf("Find() while disabled = %v, want nil", got)
	}

	idx.SetEnabled(true)
	if got := idx.Find(b.Fingerprint); got == nil {
		t.Error("Find() after re-enabling should see the previously indexed block")
	}
}

func TestRemoveOnlyEvictsMatchingID(t *testing.T) {
	idx := New(true)
	plain := []byte("content")
	b := block.New(plain)
	b.ComputeFingerprint(plain)
	idx.Index(b)

	idx.Remove(b.Fingerprint, b.ID+1) // stale remove for a different id
	if got := idx.Find(b.Fingerprint); got == nil {
		t.Error("Remove() with a mismatched id should not evict the current entry")
	}

	idx.Remove(b.Fingerprint, b.ID)
	if got := idx.Find(b.Fingerprint); got != nil {
		t.Error("Remove() with the matching id should evict the entry")
	}
}
