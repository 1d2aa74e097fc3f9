// Package cache implements the three-tier block cache (C1/C2/C3):
// an in-memory hash map with FIFO-by-bytes eviction (L1), a
// memory-mapped fixed-slot file (L2), and a filesystem directory with
// a TTL and byte budget (L3). Lookup falls through L1 → L2 → L3; an
// L2 or L3 hit promotes the block back up to L1 (and, for L3 hits,
// L2) (spec.md §4.7).
package cache

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blockvault/blockvault/internal/logger"
	"github.com/blockvault/blockvault/pkg/block"
	"github.com/blockvault/blockvault/pkg/cache/l2"
	"github.com/blockvault/blockvault/pkg/cache/l3"
	"github.com/blockvault/blockvault/pkg/compress"
	"github.com/blockvault/blockvault/pkg/metrics"
)

// Level is a bitmask selecting one or more cache tiers for Invalidate.
type Level int

const (
	LevelL1 Level = 1 << iota
	LevelL2
	LevelL3

	LevelAll = LevelL1 | LevelL2 | LevelL3
)

// Config configures every tier of the cache.
type Config struct {
	L1MaxBytes uint64

	L2Path      string
	L2SlotCount uint64
	BlockSize   uint64

	L3Dir           string
	L3Capacity      uint64
	L3MaxEntries    int
	L3ExpireSeconds int64

	// Metrics is a nil-safe observer attached to the returned Cache;
	// nil disables metrics entirely (spec.md's ambient metrics surface
	// is optional).
	Metrics metrics.CacheMetrics
}

// TierCounters holds hit/miss counts for one tier.
type TierCounters struct {
	Hits   uint64
	Misses uint64
}

// Stats is a point-in-time snapshot of cache counters, for
// snapshot_stats() (spec.md §6).
type Stats struct {
	L1, L2, L3 TierCounters

	L1Bytes    uint64
	L1MaxBytes uint64

	L3Entries int
	L3Bytes   uint64
}

// Cache is the multi-tier block cache facade. It satisfies the
// blockmap.Cache interface (Get/Put) so it can be handed directly to
// a Block Map's Read/Write.
type Cache struct {
	mu       sync.Mutex
	order    []uint64 // L1 FIFO insertion order
	entries  map[uint64]*block.Block
	l1Bytes  uint64
	l1MaxMax uint64

	l2 *l2.Tier
	l3 *l3.Tier

	l1Hits, l1Misses atomic.Uint64
	l2Hits, l2Misses atomic.Uint64
	l3Hits, l3Misses atomic.Uint64

	// Metrics is a nil-safe observer; nil by default.
	Metrics metrics.CacheMetrics
}

// New constructs a cache with all three tiers configured per cfg.
func New(cfg Config) (*Cache, error) {
	if cfg.BlockSize == 0 {
		return nil, fmt.Errorf("cache: BlockSize must be positive")
	}

	l2Tier, err := l2.New(cfg.L2Path, cfg.L2SlotCount, cfg.BlockSize)
	if err != nil {
		return nil, fmt.Errorf("cache: l2: %w", err)
	}
	l3Tier, err := l3.New(cfg.L3Dir, cfg.L3Capacity, cfg.L3MaxEntries, cfg.L3ExpireSeconds)
	if err != nil {
		l2Tier.Close()
		return nil, fmt.Errorf("cache: l3: %w", err)
	}

	return &Cache{
		entries:  make(map[uint64]*block.Block),
		l1MaxMax: cfg.L1MaxBytes,
		l2:       l2Tier,
		l3:       l3Tier,
		Metrics:  cfg.Metrics,
	}, nil
}

// blockCost is the L1 byte accounting cost for a block: compressed
// size if compressed, else plain size (spec.md §4.7).
func blockCost(b *block.Block) uint64 {
	if b.StoredSize > 0 {
		return b.StoredSize
	}
	return b.PlainSize
}

// Get looks up id, falling through L1 → L2 → L3. An L2 or L3 hit
// promotes the block back to L1 (L3 hits also repopulate L2).
func (c *Cache) Get(id uint64) (*block.Block, bool) {
	start := time.Now()
	if b, ok := c.getL1(id); ok {
		c.l1Hits.Add(1)
		metrics.ObserveGet(c.Metrics, "l1", true, time.Since(start))
		return b, true
	}
	c.l1Misses.Add(1)
	metrics.ObserveGet(c.Metrics, "l1", false, time.Since(start))

	start = time.Now()
	if plain, ok := c.l2.Get(id); ok {
		c.l2Hits.Add(1)
		metrics.ObserveGet(c.Metrics, "l2", true, time.Since(start))
		b := reconstructBlock(id, plain)
		c.Put(b)
		return b, true
	}
	c.l2Misses.Add(1)
	metrics.ObserveGet(c.Metrics, "l2", false, time.Since(start))

	start = time.Now()
	if plain, ok := c.l3.Get(id); ok {
		c.l3Hits.Add(1)
		metrics.ObserveGet(c.Metrics, "l3", true, time.Since(start))
		b := reconstructBlock(id, plain)
		c.Put(b) // promotes into L1 and re-writes L2 (spec.md §4.7)
		return b, true
	}
	c.l3Misses.Add(1)
	metrics.ObserveGet(c.Metrics, "l3", false, time.Since(start))

	return nil, false
}

func (c *Cache) getL1(id uint64) (*block.Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[id]
	return b, ok
}

// reconstructBlock rebuilds a Block from an L2/L3 plaintext payload.
// L2 and L3 only ever hold plaintext, so the promoted Block always
// reports AlgoNone; its fingerprint is recomputed from content.
func reconstructBlock(id uint64, plain []byte) *block.Block {
	b := block.New(plain)
	b.ID = id
	b.ComputeFingerprint(plain)
	return b
}

// Put writes b into L1 (evicting FIFO-head entries as needed to stay
// within the byte budget) and into L2 as plaintext. An id displaced
// from L2 is also invalidated at L3 to avoid split-brain.
func (c *Cache) Put(b *block.Block) {
	start := time.Now()
	c.putL1(b)

	plain, err := blockPlaintext(b)
	if err != nil {
		logger.Error("cache: decompress for L2 insert failed", logger.BlockID(b.ID), logger.Err(err))
		return
	}

	evicted, err := c.l2.Put(b.ID, plain)
	metrics.ObservePut(c.Metrics, "l2", int64(len(plain)), time.Since(start))
	if err != nil {
		logger.Warn("cache: L2 put failed, block resident only at L1", logger.BlockID(b.ID), logger.Err(err))
		return
	}
	if evicted != 0 {
		c.l3.Invalidate(evicted)
		metrics.RecordEviction(c.Metrics, "l2")
	}
}

func blockPlaintext(b *block.Block) ([]byte, error) {
	if b.IsPlaintext() {
		return b.Payload, nil
	}
	return compress.Decompress(b.Algo, b.Payload, int(b.PlainSize))
}

func (c *Cache) putL1(b *block.Block) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[b.ID]; exists {
		c.entries[b.ID] = b
		return
	}

	cost := blockCost(b)
	for c.l1MaxMax > 0 && c.l1Bytes+cost > c.l1MaxMax && len(c.order) > 0 {
		head := c.order[0]
		c.order = c.order[1:]
		if old, ok := c.entries[head]; ok {
			c.l1Bytes -= blockCost(old)
			delete(c.entries, head)
			metrics.RecordEviction(c.Metrics, "l1")
		}
	}

	c.entries[b.ID] = b
	c.order = append(c.order, b.ID)
	c.l1Bytes += cost
	metrics.RecordTierBytes(c.Metrics, "l1", int64(c.l1Bytes))
}

// PutL3 inserts a block directly into L3 without touching L1 or L2,
// for cold archival and for exercising the promote-on-hit path in
// isolation (spec.md §8 scenario 6).
func (c *Cache) PutL3(b *block.Block) error {
	plain, err := blockPlaintext(b)
	if err != nil {
		return err
	}
	return c.l3.Put(b.ID, plain)
}

// Invalidate evicts id from the selected tiers.
func (c *Cache) Invalidate(id uint64, levels Level) {
	if levels&LevelL1 != 0 {
		c.mu.Lock()
		if old, ok := c.entries[id]; ok {
			c.l1Bytes -= blockCost(old)
			delete(c.entries, id)
		}
		c.mu.Unlock()
	}
	if levels&LevelL2 != 0 {
		c.l2.Invalidate(id)
	}
	if levels&LevelL3 != 0 {
		c.l3.Invalidate(id)
	}
}

// Prefetch pulls each id into L1 via a best-effort Get, ignoring
// misses.
func (c *Cache) Prefetch(ids []uint64) {
	for _, id := range ids {
		c.Get(id)
	}
}

// FlushDirty syncs every dirty L2 slot and trims expired L3 entries,
// returning how many L2 slots were flushed and the dirty fraction
// observed beforehand so a caller (the writeback scheduler) can
// decide whether to run another immediate pass (spec.md §4.7).
func (c *Cache) FlushDirty() (flushed int, dirtyFraction float64, err error) {
	flushed, dirtyFraction, err = c.l2.FlushDirty()
	metrics.RecordDirtyFraction(c.Metrics, dirtyFraction)
	trimmed := c.l3.TrimExpired(time.Now())
	if trimmed > 0 {
		logger.Debug("cache: trimmed expired L3 entries", logger.Count(uint32(trimmed)))
	}
	metrics.RecordTierBytes(c.Metrics, "l3", int64(c.l3.CurrentBytes()))
	return flushed, dirtyFraction, err
}

// Manage runs one synchronous writeback/trim pass, for
// cache_force_writeback() (spec.md §6).
func (c *Cache) Manage() error {
	_, _, err := c.FlushDirty()
	return err
}

// Stats returns a snapshot of tier counters and sizes.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	l1Bytes := c.l1Bytes
	c.mu.Unlock()

	return Stats{
		L1: TierCounters{Hits: c.l1Hits.Load(), Misses: c.l1Misses.Load()},
		L2: TierCounters{Hits: c.l2Hits.Load(), Misses: c.l2Misses.Load()},
		L3: TierCounters{Hits: c.l3Hits.Load(), Misses: c.l3Misses.Load()},

		L1Bytes:    l1Bytes,
		L1MaxBytes: c.l1MaxMax,

		L3Entries: c.l3.EntryCount(),
		L3Bytes:   c.l3.CurrentBytes(),
	}
}

// Close releases the L2 mmap and backing file handle.
func (c *Cache) Close() error {
	return c.l2.Close()
}
