package compress

import "github.com/blockvault/blockvault/pkg/block"

// Plan is the outcome of deciding whether and how to compress a block's
// plaintext: either CompressedAlgo == AlgoNone (store as plaintext) or a
// concrete algorithm/level pair to apply.
type Plan struct {
	Class          block.Class
	CompressedAlgo block.Algo
	Level          int
}

// Decide classifies plaintext and selects a compression plan under the
// current load, honoring minCompressSize (spec.md §4.3: blocks smaller
// than the configured minimum are never compressed).
func Decide(plaintext []byte, configuredAlgo block.Algo, configuredLevel, minCompressSize int) Plan {
	class := Classify(plaintext)
	if len(plaintext) < minCompressSize {
		return Plan{Class: class, CompressedAlgo: block.AlgoNone}
	}

	loadRatio := NormalizedLoad()
	algo := SelectAlgorithm(class, configuredAlgo, loadRatio)
	if algo == block.AlgoNone {
		return Plan{Class: class, CompressedAlgo: block.AlgoNone}
	}
	return Plan{
		Class:          class,
		CompressedAlgo: algo,
		Level:          AdjustLevel(configuredLevel, loadRatio),
	}
}

// Apply runs the plan against plaintext, storing b as compressed only if
// the result is strictly smaller than the plaintext (spec.md §4.3);
// otherwise b is left/set as plaintext.
func Apply(b *block.Block, plaintext []byte, plan Plan) error {
	b.Class = plan.Class
	if plan.CompressedAlgo == block.AlgoNone {
		b.SetPlain(plaintext)
		return nil
	}

	compressed, err := Compress(plan.CompressedAlgo, plan.Level, plaintext)
	if err != nil {
		if err == errIncompressible {
			b.SetPlain(plaintext)
			return nil
		}
		return err
	}
	if len(compressed) >= len(plaintext) {
		b.SetPlain(plaintext)
		return nil
	}
	b.SetCompressed(plan.CompressedAlgo, compressed, uint64(len(plaintext)))
	return nil
}
