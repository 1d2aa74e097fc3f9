// Package engine ties every core package together behind the external
// interfaces spec.md §6 names: the fuse/POSIX-facing read/write/version
// operations and the integrity/backup-facing cache and inspection
// operations. It owns the per-inode registry (each inode's Block Map
// and Version Chain) and the shared singletons — cache, Fingerprint
// Index, config store, dedup pipeline, writeback scheduler.
package engine

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/blockvault/blockvault/internal/logger"
	"github.com/blockvault/blockvault/internal/telemetry"
	"github.com/blockvault/blockvault/pkg/block"
	"github.com/blockvault/blockvault/pkg/blockmap"
	"github.com/blockvault/blockvault/pkg/cache"
	"github.com/blockvault/blockvault/pkg/dedup"
	"github.com/blockvault/blockvault/pkg/engineconfig"
	"github.com/blockvault/blockvault/pkg/engineerr"
	"github.com/blockvault/blockvault/pkg/fingerprint"
	"github.com/blockvault/blockvault/pkg/metrics"
	"github.com/blockvault/blockvault/pkg/scheduler"
	"github.com/blockvault/blockvault/pkg/version"
)

// periodicVersionPeriod is how often MaybeCreatePeriodic is willing to
// create an unattended version for an inode that keeps getting written
// without an explicit create_version call (spec.md §4.6).
const periodicVersionPeriod = 1 * time.Hour

// inode bundles one inode's live Block Map and Version Chain under a
// single lock, plus its pinned flag (retention exemption, spec.md §4.6.3).
type inode struct {
	mu     sync.Mutex
	id     uint64
	bm     *blockmap.BlockMap
	chain  *version.Chain
	pinned bool
}

// Engine is the core's entry point. The zero value is not usable; build
// one with New.
type Engine struct {
	cache     *cache.Cache
	fi        *fingerprint.Index
	config    *engineconfig.Store
	pipeline  *dedup.Pipeline
	scheduler *scheduler.Writeback
	views     *viewCache

	splitter blockmap.SplitterConfig

	// globalMu serializes the periodic-creation worker with itself; it
	// is never held while a per-inode chain lock is held, and no other
	// path takes it while holding a chain lock, so the two locks never
	// nest in more than one order (spec.md §9).
	globalMu sync.Mutex

	inodesMu sync.Mutex
	inodes   map[uint64]*inode
}

// Config configures a new Engine.
type Config struct {
	Cache             cache.Config
	ConfigPath        string
	Dedup             bool
	Splitter          blockmap.SplitterConfig
	SweepInterval     time.Duration
	RetentionInterval time.Duration

	// MetricsEnabled attaches the Prometheus-backed cache/dedup/
	// compression observers (spec.md §11 Monitoring) to the cache and
	// dedup pipeline this Engine builds. The caller is responsible for
	// having called metrics.InitRegistry() first; with it unset, or
	// InitRegistry never called, every observer stays nil.
	MetricsEnabled bool
}

// New constructs an Engine with a fresh cache, Fingerprint Index,
// config store, and dedup pipeline, and starts its writeback scheduler.
func New(cfg Config) (*Engine, error) {
	cacheCfg := cfg.Cache
	var dedupMetrics metrics.DedupMetrics
	var compressMetrics metrics.CompressMetrics
	if cfg.MetricsEnabled {
		cacheCfg.Metrics = metrics.NewCacheMetrics()
		dedupMetrics = metrics.NewDedupMetrics()
		compressMetrics = metrics.NewCompressMetrics()
	}

	c, err := cache.New(cacheCfg)
	if err != nil {
		return nil, err
	}

	fi := fingerprint.New(cfg.Dedup)
	store := engineconfig.NewStore(cfg.ConfigPath)
	if loaded, ok, loadErr := engineconfig.Load(cfg.ConfigPath); loadErr == nil && ok {
		store.Update(loaded)
	}

	splitter := cfg.Splitter
	if splitter.MaxBlock == 0 {
		splitter = blockmap.DefaultSplitterConfig()
	}

	e := &Engine{
		cache:    c,
		fi:       fi,
		config:   store,
		pipeline: dedup.New(fi, store).WithMetrics(dedupMetrics, compressMetrics),
		splitter: splitter,
		views:    newViewCache(viewCacheSize),
		inodes:   make(map[uint64]*inode),
	}

	e.scheduler = scheduler.New(c, scheduler.Config{
		SweepInterval:     cfg.SweepInterval,
		RetentionInterval: cfg.RetentionInterval,
	}).WithRetainer(e)
	e.scheduler.Start(context.Background())

	return e, nil
}

// Close stops the writeback scheduler and releases the cache's
// resources.
func (e *Engine) Close() error {
	e.scheduler.Stop()
	return e.cache.Close()
}

// inodeFor returns the inode state for id, creating it (with a Block
// Map sized by the splitter and an empty Version Chain) on first use.
func (e *Engine) inodeFor(id uint64, fileSizeHint int64) *inode {
	e.inodesMu.Lock()
	defer e.inodesMu.Unlock()

	if n, ok := e.inodes[id]; ok {
		return n
	}
	blockSize := blockmap.PickBlockSize(e.splitter, fileSizeHint)
	n := &inode{
		id:    id,
		bm:    blockmap.New(blockSize),
		chain: version.New(id),
	}
	e.inodes[id] = n
	return n
}

// SmartReadFile reads size bytes at offset from inodeID, reading
// through the multi-tier cache (spec.md §6 smart_read_file).
func (e *Engine) SmartReadFile(ctx context.Context, inodeID uint64, size int, offset int64) ([]byte, error) {
	if size < 0 || offset < 0 {
		return nil, engineerr.New(engineerr.InvalidArgument, "size and offset must be non-negative")
	}

	_, span := telemetry.StartSmartReadSpan(ctx, inodeID, offset, size)
	defer span.End()

	n := e.inodeFor(inodeID, 0)
	n.mu.Lock()
	defer n.mu.Unlock()

	data, err := n.bm.Read(offset, size, e.cache)
	if err != nil {
		return nil, engineerr.Newf(engineerr.IoError, inodeSubject(inodeID), "read failed: %v", err)
	}
	return data, nil
}

func inodeSubject(id uint64) string {
	return "inode:" + strconv.FormatUint(id, 10)
}

// SmartWriteFile writes data at offset into inodeID, pushing every
// touched slot through the Dedup Pipeline and cache, then triggers
// change-based version creation if enough of the file changed since
// the last version (spec.md §6 smart_write_file, §4.6
// "Change-triggered creation").
func (e *Engine) SmartWriteFile(ctx context.Context, inodeID uint64, data []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, engineerr.New(engineerr.InvalidArgument, "offset must be non-negative")
	}

	_, span := telemetry.StartSmartWriteSpan(ctx, inodeID, offset, len(data))
	defer span.End()

	n := e.inodeFor(inodeID, offset+int64(len(data)))
	n.mu.Lock()
	defer n.mu.Unlock()

	written, err := n.bm.Write(offset, data, e.cache, e.pipeline)
	if err != nil {
		return written, engineerr.Newf(engineerr.IoError, inodeSubject(inodeID), "write failed: %v", err)
	}

	if _, vErr := n.chain.MaybeCreateOnChange(n.bm, time.Now()); vErr != nil {
		logger.Warn("engine: change-triggered version creation failed", logger.Err(vErr))
	}

	return written, nil
}

// ResolveVersion resolves selector against inodeID's version chain
// (spec.md §6 resolve_version).
func (e *Engine) ResolveVersion(inodeID uint64, selectorExpr string) (*version.Node, error) {
	n := e.inodeFor(inodeID, 0)
	node, err := n.chain.Resolve(selectorExpr, time.Now())
	if err != nil {
		return nil, engineerr.Newf(engineerr.NotFound, inodeSubject(inodeID), "%v", err)
	}
	return node, nil
}

// VersionView resolves selector against inodeID's chain and returns
// the resolved version's public metadata, serving repeat lookups of
// the same (inode, version_id) pair from the bounded view cache
// (spec.md §4.9) instead of rebuilding the record every time.
func (e *Engine) VersionView(inodeID uint64, selectorExpr string) (version.View, error) {
	n := e.inodeFor(inodeID, 0)
	node, err := n.chain.Resolve(selectorExpr, time.Now())
	if err != nil {
		return version.View{}, engineerr.Newf(engineerr.NotFound, inodeSubject(inodeID), "%v", err)
	}

	if v, ok := e.views.get(inodeID, node.VersionID); ok {
		return v, nil
	}
	v := version.ViewOf(inodeID, node)
	e.views.put(v)
	return v, nil
}

// ListVersions returns inodeID's versions newest-to-oldest, formatted
// as "v<id> | <timestamp> | <reason>" lines (spec.md §6 list_versions).
func (e *Engine) ListVersions(inodeID uint64) []string {
	n := e.inodeFor(inodeID, 0)
	nodes := n.chain.List()
	lines := make([]string, len(nodes))
	for i, node := range nodes {
		lines[i] = version.FormatListLine(node)
	}
	return lines
}

// CreateVersion manually snapshots inodeID's current content (spec.md
// §6 create_version).
func (e *Engine) CreateVersion(inodeID uint64, reason string) (*version.Node, error) {
	n := e.inodeFor(inodeID, 0)
	n.mu.Lock()
	defer n.mu.Unlock()

	_, span := telemetry.StartVersionSpan(context.Background(), "create_version", inodeID, telemetry.Reason(reason))
	defer span.End()

	node, err := n.chain.Create(n.bm, reason, time.Now())
	if err != nil {
		return nil, engineerr.Newf(engineerr.IoError, inodeSubject(inodeID), "create_version failed: %v", err)
	}
	return node, nil
}

// DeleteVersion removes a version from inodeID's chain, refusing an
// important one (spec.md §6 delete_version, §7 Permission kind).
func (e *Engine) DeleteVersion(inodeID, versionID uint64) error {
	n := e.inodeFor(inodeID, 0)
	found, err := n.chain.DeleteVersion(versionID)
	if !found {
		return engineerr.Newf(engineerr.NotFound, inodeSubject(inodeID), "no such version v%d", versionID)
	}
	if err == version.ErrImportant {
		return engineerr.Newf(engineerr.Permission, inodeSubject(inodeID), "v%d is marked important", versionID)
	}
	e.views.invalidate(inodeID, versionID)
	return nil
}

// MarkImportant sets or clears the important flag on a version
// (spec.md §6 mark_important).
func (e *Engine) MarkImportant(inodeID, versionID uint64, important bool) error {
	n := e.inodeFor(inodeID, 0)
	if !n.chain.MarkImportant(versionID, important) {
		return engineerr.Newf(engineerr.NotFound, inodeSubject(inodeID), "no such version v%d", versionID)
	}
	e.views.invalidate(inodeID, versionID)
	return nil
}

// SetPinned marks inodeID exempt from retention entirely (spec.md
// §4.6.3's pinned-vs-important distinction, §6 configuration setters).
func (e *Engine) SetPinned(inodeID uint64, pinned bool) {
	n := e.inodeFor(inodeID, 0)
	n.mu.Lock()
	n.pinned = pinned
	n.mu.Unlock()
}

// RunRetention runs the version-chain retention pass for inodeID under
// the engine's globally-configured retention knobs. This is the
// "periodic-creation worker" spec.md §9 describes: it may itself call
// create_version while holding globalMu, but never while holding a
// chain lock, preserving the single safe lock order.
func (e *Engine) RunRetention(inodeID uint64) []uint64 {
	e.globalMu.Lock()
	defer e.globalMu.Unlock()

	n := e.inodeFor(inodeID, 0)
	n.mu.Lock()
	_, err := n.chain.MaybeCreatePeriodic(n.bm, time.Now(), periodicVersionPeriod)
	pinned := n.pinned
	n.mu.Unlock()
	if err != nil {
		logger.Warn("engine: periodic version creation failed", logger.Err(err))
	}

	cfg := e.config.Get()
	removed := n.chain.Retain(pinned, cfg.Retention.MaxVersions, cfg.Retention.ExpireDays, cfg.Retention.SizeLimit, time.Now())
	e.views.invalidateAll(inodeID, removed)
	return removed
}

// RunAllRetention runs RunRetention over every inode the engine has
// seen so far, for the scheduler's periodic retention sweep (spec.md
// §2's BG component, SPEC_FULL.md §13).
func (e *Engine) RunAllRetention() {
	e.inodesMu.Lock()
	ids := make([]uint64, 0, len(e.inodes))
	for id := range e.inodes {
		ids = append(ids, id)
	}
	e.inodesMu.Unlock()

	for _, id := range ids {
		if removed := e.RunRetention(id); len(removed) > 0 {
			logger.Debug("engine: retention removed versions", logger.Count(uint32(len(removed))))
		}
	}
}

// SetDedupEnabled toggles the Fingerprint Index (spec.md §6
// configuration setters).
func (e *Engine) SetDedupEnabled(enabled bool) {
	e.fi.SetEnabled(enabled)
	cfg := e.config.Get()
	cfg.EnableDedup = enabled
	e.config.Update(cfg)
}

// UpdateConfig validates and applies a full configuration update
// (spec.md §6 configuration setters, §4.8).
func (e *Engine) UpdateConfig(cfg engineconfig.Config) error {
	if err := e.config.Update(cfg); err != nil {
		return engineerr.Newf(engineerr.InvalidArgument, "", "%v", err)
	}
	e.fi.SetEnabled(cfg.EnableDedup)
	return nil
}

// GetConfig returns the current configuration.
func (e *Engine) GetConfig() engineconfig.Config {
	return e.config.Get()
}

// BlockFingerprint returns b's 64-bit Fingerprint Index key (spec.md §6
// block_fingerprint).
func BlockFingerprint(b *block.Block) uint64 {
	return b.Fingerprint.Key()
}

// FindByFingerprint looks up the canonical block for a full 32-byte
// fingerprint (spec.md §6 find_by_fingerprint).
func (e *Engine) FindByFingerprint(fp block.Fingerprint) *block.Block {
	return e.fi.Find(fp)
}

// CacheForceWriteback runs one synchronous writeback pass (spec.md §6
// cache_force_writeback).
func (e *Engine) CacheForceWriteback() error {
	return e.cache.Manage()
}

// CachePrefetch pulls a block into L1 (spec.md §6 cache_prefetch).
func (e *Engine) CachePrefetch(id uint64) {
	e.cache.Prefetch([]uint64{id})
}

// Stats is the snapshot_stats() response: cache counters plus the
// Fingerprint Index's size, standing in for the dedup and
// compression-class counters spec.md §6 calls for (compression-class
// counts are tracked per-operation through pkg/metrics, not
// accumulated here, to avoid keeping a second counter set).
type Stats struct {
	Cache          cache.Stats
	FingerprintLen int
}

// SnapshotStats returns the current statistics snapshot (spec.md §6
// snapshot_stats).
func (e *Engine) SnapshotStats() Stats {
	return Stats{
		Cache:          e.cache.Stats(),
		FingerprintLen: e.fi.Len(),
	}
}

// Verify recomputes b's fingerprint over plaintext and reports whether
// it matches the block's stored fingerprint (spec.md §6 corruption
// hook "verify").
func Verify(b *block.Block, plaintext []byte) bool {
	return b.Verify(plaintext)
}

// OnCorruption is called when Verify fails. The core never mutates the
// caller's data itself. A corrupted block that is still referenced is
// removed from the Fingerprint Index, so a fresh copy can be indexed in
// its place, and OnCorruption returns true (recover); an unreferenced
// block is left as it is and it returns false (spec.md §6 corruption
// hook "on_corruption", §7 "the core does not itself mutate caller
// data on detection").
func (e *Engine) OnCorruption(b *block.Block) (recover bool) {
	if b.Refs() > 0 {
		e.fi.Remove(b.Fingerprint, b.ID)
		return true
	}
	return false
}
