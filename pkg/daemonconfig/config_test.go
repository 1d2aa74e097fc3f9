package daemonconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadAppliesDefaultsOnPartialFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
logging:
  level: "DEBUG"
metrics:
  enabled: true
  port: 9999
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Logging.Level = %q, want DEBUG", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want default text", cfg.Logging.Format)
	}
	if cfg.Metrics.Port != 9999 {
		t.Errorf("Metrics.Port = %d, want 9999", cfg.Metrics.Port)
	}
	if cfg.Scheduler.SweepInterval != 30*time.Second {
		t.Errorf("Scheduler.SweepInterval = %v, want default 30s", cfg.Scheduler.SweepInterval)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(filepath.Join(dir, "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.BlockSize != GetDefaultConfig().Cache.BlockSize {
		t.Errorf("expected default block size for missing config file")
	}
}

func TestMustLoadExplicitMissingFileIsFriendlyError(t *testing.T) {
	_, err := MustLoad("/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("MustLoad(missing explicit path) = nil error, want error")
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "TRACE"
	if err := Validate(cfg); err == nil {
		t.Error("Validate(bad level) = nil, want error")
	}
}

func TestValidateRejectsOutOfRangeMetricsPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Port = 70000
	if err := Validate(cfg); err == nil {
		t.Error("Validate(bad port) = nil, want error")
	}
}

func TestSaveConfigThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Level = "WARN"
	cfg.Metrics.Port = 9100

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Logging.Level != "WARN" {
		t.Errorf("Logging.Level = %q, want WARN", loaded.Logging.Level)
	}
	if loaded.Metrics.Port != 9100 {
		t.Errorf("Metrics.Port = %d, want 9100", loaded.Metrics.Port)
	}
}
