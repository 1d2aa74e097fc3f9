// Package l3 implements the third cache tier: a filesystem directory
// holding one file per block, with a TTL and a byte/entry-count
// budget enforced on put (spec.md §4.7, §6).
//
// New rebuilds the in-memory index by stat-ing every "<id>.bin" file
// already present; if the directory cannot be listed, the index starts
// empty and the files already there are left in place.
package l3

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type entry struct {
	size       uint64
	lastAccess time.Time
}

// Tier is the L3 cache: a directory of block payloads with an
// in-memory index of size and last-access time per id.
type Tier struct {
	mu sync.Mutex

	dir           string
	capacity      uint64
	maxEntries    int
	expireSeconds int64

	index        map[uint64]entry
	currentBytes uint64
}

// New opens (creating if necessary) dir as the L3 backing directory
// and reconstructs its index from whatever "<id>.bin" files are
// already present.
func New(dir string, capacity uint64, maxEntries int, expireSeconds int64) (*Tier, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("l3: create directory: %w", err)
	}

	t := &Tier{
		dir:           dir,
		capacity:      capacity,
		maxEntries:    maxEntries,
		expireSeconds: expireSeconds,
		index:         make(map[uint64]entry),
	}
	t.reconstructIndex()
	return t, nil
}

func (t *Tier) reconstructIndex() {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return
	}
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".bin") {
			continue
		}
		idStr := strings.TrimSuffix(de.Name(), ".bin")
		id, err := strconv.ParseUint(idStr, 10, 64)
		if err != nil {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		t.index[id] = entry{size: uint64(info.Size()), lastAccess: info.ModTime()}
		t.currentBytes += uint64(info.Size())
	}
}

func (t *Tier) pathFor(id uint64) string {
	return filepath.Join(t.dir, strconv.FormatUint(id, 10)+".bin")
}

// Get returns a block's payload if it is present and not expired.
// An expired entry reads as absent here; TrimExpired physically
// removes it later (spec.md §4.7).
func (t *Tier) Get(id uint64) ([]byte, bool) {
	t.mu.Lock()
	e, ok := t.index[id]
	if !ok {
		t.mu.Unlock()
		return nil, false
	}
	if t.expired(e, time.Now()) {
		t.mu.Unlock()
		return nil, false
	}
	e.lastAccess = time.Now()
	t.index[id] = e
	t.mu.Unlock()

	data, err := os.ReadFile(t.pathFor(id))
	if err != nil {
		return nil, false
	}
	return data, true
}

func (t *Tier) expired(e entry, now time.Time) bool {
	return t.expireSeconds > 0 && now.Sub(e.lastAccess) > time.Duration(t.expireSeconds)*time.Second
}

// Put writes a block's payload, evicting the oldest-accessed entries
// (B5: at least one entry survives unless capacity is zero) until the
// new entry fits within the byte and entry-count budget.
func (t *Tier) Put(id uint64, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.index[id]; ok {
		t.currentBytes -= existing.size
		delete(t.index, id)
	}

	for t.overBudgetLocked(uint64(len(data))) {
		if len(t.index) == 0 {
			break
		}
		if len(t.index) <= 1 && t.capacity != 0 {
			break // B5: preserve the minimum-of-one-entry property
		}
		t.evictOldestLocked()
	}

	if err := os.WriteFile(t.pathFor(id), data, 0644); err != nil {
		return fmt.Errorf("l3: write block %d: %w", id, err)
	}

	t.index[id] = entry{size: uint64(len(data)), lastAccess: time.Now()}
	t.currentBytes += uint64(len(data))
	return nil
}

func (t *Tier) overBudgetLocked(adding uint64) bool {
	if t.currentBytes+adding > t.capacity {
		return true
	}
	return t.maxEntries > 0 && len(t.index) >= t.maxEntries
}

func (t *Tier) evictOldestLocked() {
	var oldestID uint64
	var oldestTime time.Time
	first := true
	for id, e := range t.index {
		if first || e.lastAccess.Before(oldestTime) {
			oldestID, oldestTime = id, e.lastAccess
			first = false
		}
	}
	if first {
		return
	}
	t.removeLocked(oldestID)
}

func (t *Tier) removeLocked(id uint64) {
	e, ok := t.index[id]
	if !ok {
		return
	}
	_ = os.Remove(t.pathFor(id))
	t.currentBytes -= e.size
	delete(t.index, id)
}

// Invalidate removes id from L3 if present.
func (t *Tier) Invalidate(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.removeLocked(id)
}

// TrimExpired removes every entry whose last access is older than the
// configured TTL, returning the number of entries removed.
func (t *Tier) TrimExpired(now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.expireSeconds <= 0 {
		return 0
	}

	var stale []uint64
	for id, e := range t.index {
		if t.expired(e, now) {
			stale = append(stale, id)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i] < stale[j] })
	for _, id := range stale {
		t.removeLocked(id)
	}
	return len(stale)
}

// EntryCount returns the number of entries currently tracked.
func (t *Tier) EntryCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.index)
}

// CurrentBytes returns the total byte size of tracked entries.
func (t *Tier) CurrentBytes() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentBytes
}
