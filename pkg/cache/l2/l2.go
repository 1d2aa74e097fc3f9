// Package l2 implements the second cache tier: a fixed-size array of
// block-sized slots over a memory-mapped backing file, direct-mapped
// by id modulo the slot count (spec.md §4.7, §6).
//
// The backing file carries no header; the slot-to-id mapping lives
// only in memory and is discarded on restart. L2 always stores
// plaintext — a block compressed in memory is decompressed before it
// reaches this tier.
package l2

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// Tier is the L2 cache: slotCount slots of blockSize bytes each,
// backed by an mmap'd file. Direct-mapped: a block with id n lives at
// slot n % slotCount, evicting whatever block previously held that
// slot.
type Tier struct {
	mu sync.RWMutex

	file      *os.File
	data      []byte
	blockSize uint64
	slotCount uint64

	slotID   []uint64 // id resident at each slot, 0 = empty (ids start at 1)
	slotLen  []uint32 // valid byte length within the slot
	dirty    []bool
	pageSize int
}

// New creates (or truncates and recreates) the backing file at path
// and maps slotCount*blockSize bytes. Block ids are assumed never to
// be zero, which is used as the "empty slot" sentinel.
func New(path string, slotCount, blockSize uint64) (*Tier, error) {
	if slotCount == 0 || blockSize == 0 {
		return nil, fmt.Errorf("l2: slotCount and blockSize must be positive")
	}

	total := slotCount * blockSize
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("l2: open backing file: %w", err)
	}
	if err := f.Truncate(int64(total)); err != nil {
		f.Close()
		return nil, fmt.Errorf("l2: truncate backing file: %w", err)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(total), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("l2: mmap: %w", err)
	}

	return &Tier{
		file:      f,
		data:      data,
		blockSize: blockSize,
		slotCount: slotCount,
		slotID:    make([]uint64, slotCount),
		slotLen:   make([]uint32, slotCount),
		dirty:     make([]bool, slotCount),
		pageSize:  unix.Getpagesize(),
	}, nil
}

func (t *Tier) slotFor(id uint64) uint64 {
	return id % t.slotCount
}

// Get returns a copy of the plaintext resident at id's slot, or false
// if that slot doesn't currently hold id (P6: the slot index is
// id % slotCount and that slot's tracked id must equal id).
func (t *Tier) Get(id uint64) ([]byte, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	slot := t.slotFor(id)
	if t.slotID[slot] != id {
		return nil, false
	}
	start := slot * t.blockSize
	out := make([]byte, t.slotLen[slot])
	copy(out, t.data[start:start+uint64(t.slotLen[slot])])
	return out, true
}

// Put writes plaintext into id's slot, overwriting whatever was
// there. Returns the evicted id (0 if the slot was empty or already
// held id) so the caller can evict it from L3 too, avoiding
// split-brain between the tiers.
func (t *Tier) Put(id uint64, plaintext []byte) (evicted uint64, err error) {
	if uint64(len(plaintext)) > t.blockSize {
		return 0, fmt.Errorf("l2: payload %d exceeds block size %d", len(plaintext), t.blockSize)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	slot := t.slotFor(id)
	if prev := t.slotID[slot]; prev != 0 && prev != id {
		evicted = prev
	}

	start := slot * t.blockSize
	end := start + t.blockSize
	clear(t.data[start:end])
	copy(t.data[start:], plaintext)

	t.slotID[slot] = id
	t.slotLen[slot] = uint32(len(plaintext))
	t.dirty[slot] = true

	return evicted, nil
}

// Invalidate removes id from L2 if it currently resides there.
func (t *Tier) Invalidate(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	slot := t.slotFor(id)
	if t.slotID[slot] == id {
		t.slotID[slot] = 0
		t.slotLen[slot] = 0
		t.dirty[slot] = false
	}
}

// FlushDirty msyncs the page range of every dirty slot and clears its
// dirty flag, returning the number of slots flushed and the dirty
// fraction observed before flushing (spec.md §4.7's writeback pass).
func (t *Tier) FlushDirty() (flushed int, dirtyFraction float64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	dirtyBefore := 0
	for _, d := range t.dirty {
		if d {
			dirtyBefore++
		}
	}
	if t.slotCount > 0 {
		dirtyFraction = float64(dirtyBefore) / float64(t.slotCount)
	}

	for slot, d := range t.dirty {
		if !d {
			continue
		}
		lo, hi := t.pageRange(uint64(slot))
		if syncErr := unix.Msync(t.data[lo:hi], unix.MS_ASYNC); syncErr != nil {
			err = syncErr
			continue // leave dirty set so a later pass retries (spec.md §7)
		}
		t.dirty[slot] = false
		flushed++
	}
	return flushed, dirtyFraction, err
}

// pageRange returns the page-aligned byte range covering a slot, so
// msync is called with a page-aligned start address.
func (t *Tier) pageRange(slot uint64) (lo, hi uint64) {
	start := slot * t.blockSize
	end := start + t.blockSize
	page := uint64(t.pageSize)
	lo = (start / page) * page
	hi = ((end + page - 1) / page) * page
	if hi > uint64(len(t.data)) {
		hi = uint64(len(t.data))
	}
	return lo, hi
}

// SlotCount returns the configured number of slots.
func (t *Tier) SlotCount() uint64 { return t.slotCount }

// BlockSize returns the configured slot size.
func (t *Tier) BlockSize() uint64 { return t.blockSize }

// Close unmaps the backing file and closes it, syncing first.
func (t *Tier) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.data != nil {
		_ = unix.Msync(t.data, unix.MS_SYNC)
		if err := unix.Munmap(t.data); err != nil {
			return fmt.Errorf("l2: munmap: %w", err)
		}
		t.data = nil
	}
	if t.file != nil {
		if err := t.file.Close(); err != nil {
			return fmt.Errorf("l2: close backing file: %w", err)
		}
		t.file = nil
	}
	return nil
}
