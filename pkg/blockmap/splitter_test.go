package blockmap

import "testing"

func TestPickBlockSizeNoHintUsesDefault(t *testing.T) {
	cfg := DefaultSplitterConfig()
	if got := PickBlockSize(cfg, 0); got != cfg.DefaultBlock {
		t.Errorf("PickBlockSize(0) = %d, want %d", got, cfg.DefaultBlock)
	}
}

func TestPickBlockSizeSmallFileUsesMin(t *testing.T) {
	cfg := DefaultSplitterConfig()
	if got := PickBlockSize(cfg, 512<<10); got != cfg.MinBlock {
		t.Errorf("PickBlockSize(small) = %d, want %d", got, cfg.MinBlock)
	}
}

func TestPickBlockSizeLargeFileUsesMax(t *testing.T) {
	cfg := DefaultSplitterConfig()
	if got := PickBlockSize(cfg, 128<<20); got != cfg.MaxBlock {
		t.Errorf("PickBlockSize(large) = %d, want %d", got, cfg.MaxBlock)
	}
}

func TestPickBlockSizeInterpolatesBetweenBounds(t *testing.T) {
	cfg := DefaultSplitterConfig()
	mid := int64(1<<20) + (int64(64<<20)-int64(1<<20))/2
	got := PickBlockSize(cfg, mid)
	if got <= cfg.MinBlock || got >= cfg.MaxBlock {
		t.Errorf("PickBlockSize(mid) = %d, want strictly between %d and %d", got, cfg.MinBlock, cfg.MaxBlock)
	}
}

func TestPickBlockSizeNormalizesInvalidConfig(t *testing.T) {
	cfg := SplitterConfig{MinBlock: 0, MaxBlock: 0, DefaultBlock: 0}
	if got := PickBlockSize(cfg, 0); got != 4096 {
		t.Errorf("PickBlockSize(invalid cfg) = %d, want normalized default 4096", got)
	}
}
