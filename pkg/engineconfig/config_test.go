package engineconfig

import (
	"path/filepath"
	"testing"

	"github.com/blockvault/blockvault/pkg/block"
)

func TestValidateForcesCompressionOffWhenAlgoNone(t *testing.T) {
	cfg := Default()
	cfg.Algo = block.AlgoNone
	cfg.EnableCompression = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.EnableCompression {
		t.Error("Validate() should force EnableCompression=false when Algo=none")
	}
}

func TestValidateRaisesMinCompressSizeToFloor(t *testing.T) {
	cfg := Default()
	cfg.MinCompressSize = 10
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.MinCompressSize != minCompressFloor {
		t.Errorf("MinCompressSize = %d, want %d", cfg.MinCompressSize, minCompressFloor)
	}
}

func TestValidateRejectsOutOfRangeLevel(t *testing.T) {
	cfg := Default()
	cfg.Level = 20
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject level outside [1,9]")
	}
}

func TestStoreUpdateLeavesCurrentOnInvalidUpdate(t *testing.T) {
	s := NewStore("")
	before := s.Get()
	bad := before
	bad.Level = -5
	if err := s.Update(bad); err == nil {
		t.Fatal("Update() with invalid level should fail")
	}
	if got := s.Get(); got != before {
		t.Error("Update() failure should leave the store unchanged")
	}
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blockvault.conf")

	cfg := Default()
	cfg.Algo = block.AlgoLZ4
	cfg.Level = 7
	cfg.MinCompressSize = 2048
	cfg.EnableDedup = false

	if err := Persist(path, cfg); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	loaded, ok, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load() ok = false, want true")
	}
	if loaded.Algo != block.AlgoLZ4 || loaded.Level != 7 || loaded.MinCompressSize != 2048 || loaded.EnableDedup {
		t.Errorf("Load() = %+v, want round trip of %+v", loaded, cfg)
	}
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	_, ok, err := Load(filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Error("Load() of a missing file should report ok=false")
	}
}
