// Package dedup implements the write-path Dedup Pipeline: copy-on-write,
// fingerprint computation, Fingerprint Index lookup, and adaptive
// compression invocation for a single block slot (spec.md §4.4).
package dedup

import (
	"time"

	"github.com/blockvault/blockvault/pkg/block"
	"github.com/blockvault/blockvault/pkg/compress"
	"github.com/blockvault/blockvault/pkg/engineconfig"
	"github.com/blockvault/blockvault/pkg/fingerprint"
	"github.com/blockvault/blockvault/pkg/metrics"
)

// Pipeline runs the write-time dedup/compression sequence against a
// shared Fingerprint Index and configuration store. It intentionally
// depends on both pkg/block and pkg/compress — pkg/block stays free of
// compress to avoid an import cycle, since CoW needs to decompress an
// existing block before diffing, and that orchestration belongs here,
// not in the Block type itself.
type Pipeline struct {
	FI     *fingerprint.Index
	Config *engineconfig.Store

	// DedupMetrics and CompressMetrics are nil-safe observers; both are
	// nil by default (spec.md's ambient metrics surface is optional).
	DedupMetrics    metrics.DedupMetrics
	CompressMetrics metrics.CompressMetrics
}

// New builds a Pipeline over a shared Fingerprint Index and config
// store.
func New(fi *fingerprint.Index, cfg *engineconfig.Store) *Pipeline {
	return &Pipeline{FI: fi, Config: cfg}
}

// WithMetrics attaches nil-safe dedup/compression observers. Passing
// nil for either leaves that observer disabled.
func (p *Pipeline) WithMetrics(dedupMetrics metrics.DedupMetrics, compressMetrics metrics.CompressMetrics) *Pipeline {
	p.DedupMetrics = dedupMetrics
	p.CompressMetrics = compressMetrics
	return p
}

// Result reports what the pipeline did to one slot.
type Result struct {
	Block      *block.Block // the block the slot should now reference
	DedupHit   bool
	SavedBytes uint64
}

// CoW performs copy-on-write on cur if it is shared (Refs() > 1):
// returns a fresh Block holding a copy of plaintext with Refs == 1,
// decrementing cur's reference count. If cur is not shared, cur is
// returned unchanged (spec.md §4.4 step 1).
func CoW(cur *block.Block, plaintext []byte) *block.Block {
	if cur.Refs() <= 1 {
		return cur
	}
	cur.Dec()
	return block.New(plaintext)
}

// Apply runs the full per-slot pipeline: CoW (caller's responsibility,
// see CoW above), fingerprint, dedup lookup, and adaptive compression
// (spec.md §4.4 steps 2-4). plaintext must be the block's current
// plaintext content after any in-place overwrite.
func (p *Pipeline) Apply(cur *block.Block, plaintext []byte) (Result, error) {
	cur.ComputeFingerprint(plaintext)

	cfg := p.Config.Get()

	if cfg.EnableDedup {
		if dup := p.FI.Find(cur.Fingerprint); dup != nil && dup.ID != cur.ID {
			dup.Inc()
			cur.Dec()
			metrics.RecordLookup(p.DedupMetrics, true)
			metrics.RecordSavedBytes(p.DedupMetrics, dup.PlainSize)
			return Result{Block: dup, DedupHit: true, SavedBytes: dup.PlainSize}, nil
		}
		metrics.RecordLookup(p.DedupMetrics, false)
		p.FI.Index(cur)
		metrics.RecordIndexed(p.DedupMetrics)
	}

	if cfg.EnableCompression {
		plan := compress.Decide(plaintext, cfg.Algo, cfg.Level, cfg.MinCompressSize)
		start := time.Now()
		err := compress.Apply(cur, plaintext, plan)
		metrics.ObserveCompress(p.CompressMetrics, plan.CompressedAlgo.String(), time.Since(start))
		if err != nil {
			return Result{}, err
		}
		metrics.RecordClass(p.CompressMetrics, cur.Class.String())
		metrics.RecordAlgo(p.CompressMetrics, cur.Algo.String())
		if cur.StoredSize > 0 && cur.PlainSize > cur.StoredSize {
			metrics.RecordCompressSavedBytes(p.CompressMetrics, cur.PlainSize-cur.StoredSize)
		}
	} else {
		cur.Class = compress.Classify(plaintext)
	}

	return Result{Block: cur}, nil
}

// ApplyDiff runs Apply over every changed slot in a diff set, replacing
// each entry in place with the block the slot should now reference.
// slots maps a logical block index to its current plaintext content
// and block; callers own computing "changed" before calling this.
func (p *Pipeline) ApplyDiff(slots map[int]Slot) (savedBytes uint64, err error) {
	for idx, s := range slots {
		cowed := CoW(s.Block, s.Plaintext)
		res, applyErr := p.Apply(cowed, s.Plaintext)
		if applyErr != nil {
			return savedBytes, applyErr
		}
		savedBytes += res.SavedBytes
		slots[idx] = Slot{Block: res.Block, Plaintext: s.Plaintext}
	}
	return savedBytes, nil
}

// Slot pairs a block reference with its current plaintext content, the
// unit ApplyDiff operates over.
type Slot struct {
	Block     *block.Block
	Plaintext []byte
}
