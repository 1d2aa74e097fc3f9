package compress

import "github.com/blockvault/blockvault/pkg/block"

// SelectAlgorithm picks a compression algorithm for a block given its
// content class, the configured algorithm override (AlgoNone means "no
// override"), and the current normalized load ratio. A negative
// loadRatio means load information is unavailable and no
// pressure-based downgrade is applied (spec.md §4.3).
func SelectAlgorithm(class block.Class, configuredAlgo block.Algo, loadRatio float64) block.Algo {
	if class == block.ClassCompressed {
		return block.AlgoNone
	}

	preferred := block.AlgoLZ4
	if class == block.ClassText {
		preferred = block.AlgoZstd
	}
	if configuredAlgo != block.AlgoNone {
		preferred = configuredAlgo
	}

	if loadRatio > 1.5 {
		return block.AlgoNone
	}
	if loadRatio > 1.2 && preferred == block.AlgoZstd {
		return block.AlgoLZ4
	}

	return preferred
}

// AdjustLevel adjusts a configured compression level for the current
// load ratio and clamps the result to [1, 9] (spec.md §4.3).
func AdjustLevel(configuredLevel int, loadRatio float64) int {
	level := configuredLevel
	if loadRatio >= 0 {
		switch {
		case loadRatio > 1.5:
			level -= 3
		case loadRatio > 1.0:
			level -= 2
		case loadRatio < 0.5:
			level += 1
		}
	}
	return ClampLevel(level)
}

// ClampLevel restricts a compression level to the valid [1, 9] range.
func ClampLevel(level int) int {
	if level < 1 {
		return 1
	}
	if level > 9 {
		return 9
	}
	return level
}
