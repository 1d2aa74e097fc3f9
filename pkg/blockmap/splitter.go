package blockmap

// SplitterConfig bounds the block sizes the splitter may suggest
// (spec.md §4.5; original_source/src/module_c/block_splitter.c).
type SplitterConfig struct {
	MinBlock     int
	MaxBlock     int
	DefaultBlock int
}

const (
	minSizeHint = 1 << 20  // 1 MiB
	maxSizeHint = 64 << 20 // 64 MiB
)

// DefaultSplitterConfig mirrors the original's default: 4 KiB minimum,
// 64 KiB maximum, 4 KiB default.
func DefaultSplitterConfig() SplitterConfig {
	return SplitterConfig{MinBlock: 4096, MaxBlock: 65536, DefaultBlock: 4096}
}

func (c SplitterConfig) normalized() SplitterConfig {
	if c.MinBlock == 0 || c.MaxBlock < c.MinBlock {
		c.MinBlock, c.MaxBlock = 4096, 65536
	}
	if c.DefaultBlock < c.MinBlock || c.DefaultBlock > c.MaxBlock {
		c.DefaultBlock = c.MinBlock
	}
	return c
}

// PickBlockSize suggests a block size in [MinBlock, MaxBlock] given an
// optional file-size hint: hints at or below 1 MiB use the minimum,
// hints at or above 64 MiB use the maximum, and sizes between
// interpolate linearly (spec.md §4.5).
func PickBlockSize(cfg SplitterConfig, fileSizeHint int64) int {
	use := cfg.normalized()
	if fileSizeHint == 0 {
		return use.DefaultBlock
	}
	if fileSizeHint <= minSizeHint {
		return use.MinBlock
	}
	if fileSizeHint >= maxSizeHint {
		return use.MaxBlock
	}

	ratio := float64(fileSizeHint-minSizeHint) / float64(maxSizeHint-minSizeHint)
	span := use.MaxBlock - use.MinBlock
	suggested := use.MinBlock + int(ratio*float64(span))
	if suggested < use.MinBlock {
		suggested = use.MinBlock
	}
	if suggested > use.MaxBlock {
		suggested = use.MaxBlock
	}
	return suggested
}
