// Package fingerprint implements the Fingerprint Index: the mapping from
// a block's fingerprint to its canonical Block, which ensures one block
// per distinct content (spec.md §4.2).
package fingerprint

import (
	"sync"
	"sync/atomic"

	"github.com/blockvault/blockvault/internal/logger"
	"github.com/blockvault/blockvault/pkg/block"
)

// Index maps a truncated (first 64 bits) fingerprint to the Block that
// owns the full fingerprint. All operations take a global read/write
// lock: reads concurrent, mutations exclusive. enabled is tracked
// outside that lock so a disabled Find never contends for it at all.
type Index struct {
	mu      sync.RWMutex
	byKey   map[uint64]*block.Block
	enabled atomic.Bool
}

// New creates a Fingerprint Index. enabled controls whether Find
// consults the index at all; when false, Find returns immediately
// without taking the lock (spec.md §4.2, §12).
func New(enabled bool) *Index {
	idx := &Index{
		byKey: make(map[uint64]*block.Block),
	}
	idx.enabled.Store(enabled)
	return idx
}

// SetEnabled toggles deduplication. Toggling off does not evict any
// already-indexed blocks (spec.md §8 B4); it only gates future lookups.
func (idx *Index) SetEnabled(enabled bool) {
	idx.enabled.Store(enabled)
}

// Enabled reports whether the index is currently consulted on writes.
func (idx *Index) Enabled() bool {
	return idx.enabled.Load()
}

// Find returns the canonical Block for fp, or nil if none is indexed.
// The returned block is only a true duplicate if its full fingerprint
// equals fp (spec.md §3 invariant); callers must compare before reuse.
// A disabled index returns immediately without taking the index lock
// at all (spec.md §4.2, §12): this is the hot path when deduplication
// is off.
func (idx *Index) Find(fp block.Fingerprint) *block.Block {
	if !idx.enabled.Load() {
		return nil
	}

	idx.mu.RLock()
	b, ok := idx.byKey[fp.Key()]
	idx.mu.RUnlock()
	if !ok {
		return nil
	}
	if b.Fingerprint != fp {
		return nil
	}
	return b
}

// Index registers b under its fingerprint's truncated key. If a block
// is already indexed under that key, b is not indexed — the canonical
// block wins, keeping add-if-absent semantics race-free under the
// exclusive lock (spec.md §4.2).
func (idx *Index) Index(b *block.Block) {
	key := b.Fingerprint.Key()
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if _, exists := idx.byKey[key]; exists {
		return
	}
	idx.byKey[key] = b
	logger.Debug("fingerprint indexed", logger.BlockID(b.ID), logger.Fingerprint(b.Fingerprint))
}

// Remove removes the entry for fp if it still points at the given
// block id (a later Index call for a different block under the same
// key must not be evicted by a stale Remove).
func (idx *Index) Remove(fp block.Fingerprint, id uint64) {
	key := fp.Key()
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if b, ok := idx.byKey[key]; ok && b.ID == id {
		delete(idx.byKey, key)
	}
}

// Len reports the number of distinct keys currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byKey)
}
