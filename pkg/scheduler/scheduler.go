// Package scheduler runs the engine's two background passes (spec.md
// §2's BG component): it wakes periodically (or on demand) to flush
// dirty L2 slots and trim expired L3 entries, re-running immediately
// if the dirty fraction it just observed is still high (spec.md
// §4.7), and separately wakes on its own slower interval to run
// version-chain retention over every live inode (spec.md §4.6.3).
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/blockvault/blockvault/internal/logger"
)

// defaultSweepInterval is how often the scheduler flushes absent a signal.
const defaultSweepInterval = 30 * time.Second

// defaultRetentionInterval is how often the scheduler runs a
// retention pass over every live inode absent an explicit interval.
const defaultRetentionInterval = 10 * time.Minute

// retryDirtyFraction is the dirty-fraction threshold at or above which a sweep
// is immediately followed by another, rather than waiting for the next
// tick (spec.md §4.7).
const retryDirtyFraction = 0.20

// Flusher is the subset of pkg/cache.Cache the scheduler drives.
type Flusher interface {
	FlushDirty() (flushed int, dirtyFraction float64, err error)
}

// Retainer is the subset of pkg/engine.Engine the scheduler drives for
// the retention pass: running version-chain cleanup over every inode
// the engine currently knows about.
type Retainer interface {
	RunAllRetention()
}

// Config configures the writeback scheduler.
type Config struct {
	// SweepInterval is how often to flush absent a Kick (default: 30s).
	SweepInterval time.Duration
	// RetentionInterval is how often to run the retention pass
	// (default: 10m). Ignored if Retainer is nil.
	RetentionInterval time.Duration
}

// Writeback runs the periodic/on-demand writeback sweep and the
// periodic retention sweep in the background.
type Writeback struct {
	cache    Flusher
	interval time.Duration
	kick     chan struct{}

	retainer          Retainer
	retentionInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a writeback scheduler over cache. It does not start
// running until Start is called.
func New(cache Flusher, cfg Config) *Writeback {
	interval := defaultSweepInterval
	if cfg.SweepInterval > 0 {
		interval = cfg.SweepInterval
	}
	retentionInterval := defaultRetentionInterval
	if cfg.RetentionInterval > 0 {
		retentionInterval = cfg.RetentionInterval
	}
	return &Writeback{
		cache:             cache,
		interval:          interval,
		kick:              make(chan struct{}, 1),
		retentionInterval: retentionInterval,
	}
}

// WithRetainer attaches the retention pass's driver. Called before
// Start; a scheduler with no Retainer runs the writeback pass only.
func (w *Writeback) WithRetainer(r Retainer) *Writeback {
	w.retainer = r
	return w
}

// Start begins the writeback goroutine. It runs until ctx is cancelled
// or Stop is called.
func (w *Writeback) Start(ctx context.Context) {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run()
}

// Stop gracefully stops the scheduler, blocking until the goroutine has
// exited (after a final sweep).
func (w *Writeback) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}

// Kick requests an out-of-band sweep. It is non-blocking: if a kick is
// already pending, this is a no-op.
func (w *Writeback) Kick() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Writeback) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var retentionTicker *time.Ticker
	var retentionC <-chan time.Time
	if w.retainer != nil {
		retentionTicker = time.NewTicker(w.retentionInterval)
		defer retentionTicker.Stop()
		retentionC = retentionTicker.C
	}

	for {
		select {
		case <-w.ctx.Done():
			w.sweep()
			return
		case <-ticker.C:
			w.sweep()
		case <-w.kick:
			w.sweep()
		case <-retentionC:
			w.runRetention()
		}
	}
}

// runRetention drives the engine's retention pass.
func (w *Writeback) runRetention() {
	if w.retainer == nil {
		return
	}
	logger.Debug("scheduler: retention pass starting")
	w.retainer.RunAllRetention()
}

// sweep runs one flush pass and, while the observed dirty fraction stays
// at or above retryDirtyFraction, runs another pass immediately instead
// of waiting for the next tick.
func (w *Writeback) sweep() {
	for {
		flushed, dirtyFraction, err := w.cache.FlushDirty()
		if err != nil {
			logger.Warn("scheduler: flush pass failed", logger.Err(err))
			return
		}
		logger.Debug("scheduler: flush pass complete", logger.Count(uint32(flushed)))

		if dirtyFraction < retryDirtyFraction {
			return
		}

		select {
		case <-w.ctx.Done():
			return
		default:
		}
	}
}
