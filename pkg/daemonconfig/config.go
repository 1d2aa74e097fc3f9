// Package daemonconfig loads cmd/blockvaultd's configuration from
// environment variables, a YAML file, and defaults, in that order of
// decreasing precedence, matching the teacher's viper-backed config
// package.
package daemonconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// LoggingConfig controls the structured logger (internal/logger).
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry tracing (internal/telemetry).
type TelemetryConfig struct {
	Enabled    bool    `mapstructure:"enabled" yaml:"enabled"`
	Endpoint   string  `mapstructure:"endpoint" yaml:"endpoint"`
	Insecure   bool    `mapstructure:"insecure" yaml:"insecure"`
	SampleRate float64 `mapstructure:"sample_rate" yaml:"sample_rate"`
}

// ProfilingConfig controls Pyroscope continuous profiling
// (internal/telemetry's profiler).
type ProfilingConfig struct {
	Enabled      bool     `mapstructure:"enabled" yaml:"enabled"`
	Endpoint     string   `mapstructure:"endpoint" yaml:"endpoint"`
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig controls the Prometheus /metrics HTTP server.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// CacheConfig mirrors pkg/cache.Config's fields so they can be loaded
// from the daemon's configuration file.
type CacheConfig struct {
	L1MaxBytes      uint64 `mapstructure:"l1_max_bytes" yaml:"l1_max_bytes"`
	L2Path          string `mapstructure:"l2_path" yaml:"l2_path"`
	L2SlotCount     uint64 `mapstructure:"l2_slot_count" yaml:"l2_slot_count"`
	BlockSize       uint64 `mapstructure:"block_size" yaml:"block_size"`
	L3Dir           string `mapstructure:"l3_dir" yaml:"l3_dir"`
	L3Capacity      uint64 `mapstructure:"l3_capacity" yaml:"l3_capacity"`
	L3MaxEntries    int    `mapstructure:"l3_max_entries" yaml:"l3_max_entries"`
	L3ExpireSeconds int64  `mapstructure:"l3_expire_seconds" yaml:"l3_expire_seconds"`
}

// EngineConfig controls the storage engine (pkg/engine).
type EngineConfig struct {
	ConfigPath string `mapstructure:"config_path" yaml:"config_path"`
	Dedup      bool   `mapstructure:"dedup" yaml:"dedup"`
}

// SchedulerConfig controls the background writeback and retention
// passes (pkg/scheduler).
type SchedulerConfig struct {
	SweepInterval     time.Duration `mapstructure:"sweep_interval" yaml:"sweep_interval"`
	RetentionInterval time.Duration `mapstructure:"retention_interval" yaml:"retention_interval"`
}

// Config is cmd/blockvaultd's top-level configuration.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
	Metrics   MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	Cache     CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Engine    EngineConfig    `mapstructure:"engine" yaml:"engine"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
}

// GetDefaultConfig returns the daemon's out-of-the-box configuration,
// rooted under the state directory GetDefaultStateDir returns.
func GetDefaultConfig() *Config {
	dir := GetDefaultStateDir()
	return &Config{
		Logging: LoggingConfig{Level: "INFO", Format: "text", Output: "stdout"},
		Telemetry: TelemetryConfig{
			Enabled:    false,
			Endpoint:   "localhost:4317",
			Insecure:   true,
			SampleRate: 1.0,
		},
		Profiling: ProfilingConfig{Enabled: false, Endpoint: "http://localhost:4040"},
		Metrics:   MetricsConfig{Enabled: true, Port: 9090},
		Cache: CacheConfig{
			L1MaxBytes:      256 << 20,
			L2Path:          filepath.Join(dir, "l2.dat"),
			L2SlotCount:     16384,
			BlockSize:       65536,
			L3Dir:           filepath.Join(dir, "l3"),
			L3Capacity:      10 << 30,
			L3MaxEntries:    1 << 20,
			L3ExpireSeconds: 0,
		},
		Engine: EngineConfig{ConfigPath: filepath.Join(dir, "engine.conf"), Dedup: true},
		Scheduler: SchedulerConfig{
			SweepInterval:     30 * time.Second,
			RetentionInterval: 10 * time.Minute,
		},
	}
}

// ApplyDefaults fills in zero-valued fields with GetDefaultConfig's
// values, field by field, matching the teacher's defaults pass.
func ApplyDefaults(cfg *Config) {
	def := GetDefaultConfig()

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = def.Logging.Output
	}
	if cfg.Telemetry.Endpoint == "" {
		cfg.Telemetry.Endpoint = def.Telemetry.Endpoint
	}
	if cfg.Telemetry.SampleRate == 0 {
		cfg.Telemetry.SampleRate = def.Telemetry.SampleRate
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = def.Profiling.Endpoint
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = def.Metrics.Port
	}
	if cfg.Cache.L1MaxBytes == 0 {
		cfg.Cache.L1MaxBytes = def.Cache.L1MaxBytes
	}
	if cfg.Cache.L2Path == "" {
		cfg.Cache.L2Path = def.Cache.L2Path
	}
	if cfg.Cache.L2SlotCount == 0 {
		cfg.Cache.L2SlotCount = def.Cache.L2SlotCount
	}
	if cfg.Cache.BlockSize == 0 {
		cfg.Cache.BlockSize = def.Cache.BlockSize
	}
	if cfg.Cache.L3Dir == "" {
		cfg.Cache.L3Dir = def.Cache.L3Dir
	}
	if cfg.Cache.L3Capacity == 0 {
		cfg.Cache.L3Capacity = def.Cache.L3Capacity
	}
	if cfg.Cache.L3MaxEntries == 0 {
		cfg.Cache.L3MaxEntries = def.Cache.L3MaxEntries
	}
	if cfg.Engine.ConfigPath == "" {
		cfg.Engine.ConfigPath = def.Engine.ConfigPath
	}
	if cfg.Scheduler.SweepInterval == 0 {
		cfg.Scheduler.SweepInterval = def.Scheduler.SweepInterval
	}
	if cfg.Scheduler.RetentionInterval == 0 {
		cfg.Scheduler.RetentionInterval = def.Scheduler.RetentionInterval
	}
}

// Validate checks a loaded configuration for obviously broken values.
func Validate(cfg *Config) error {
	switch strings.ToUpper(cfg.Logging.Level) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		return fmt.Errorf("daemonconfig: logging.level %q invalid", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("daemonconfig: logging.format %q invalid", cfg.Logging.Format)
	}
	if cfg.Metrics.Port < 0 || cfg.Metrics.Port > 65535 {
		return fmt.Errorf("daemonconfig: metrics.port %d out of range", cfg.Metrics.Port)
	}
	if cfg.Cache.BlockSize == 0 {
		return fmt.Errorf("daemonconfig: cache.block_size must be > 0")
	}
	return nil
}

// Load loads configuration from file, environment, and defaults.
//
// Precedence (highest to lowest): environment variables (BLOCKVAULTD_*),
// configuration file, default values. When no configuration file is
// found, Load returns GetDefaultConfig() and environment variables are
// not applied.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration, returning a user-friendly error when
// an explicitly named config file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  blockvaultd init --config %s", configPath, configPath)
		}
	}
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path in YAML, creating parent directories
// as needed.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	v := viper.New()
	v.Set("logging", cfg.Logging)
	v.Set("telemetry", cfg.Telemetry)
	v.Set("profiling", cfg.Profiling)
	v.Set("metrics", cfg.Metrics)
	v.Set("cache", cfg.Cache)
	v.Set("engine", cfg.Engine)
	v.Set("scheduler", cfg.Scheduler)
	return v.WriteConfigAs(path)
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("BLOCKVAULTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "blockvaultd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "blockvaultd")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the
// default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetDefaultStateDir returns the default state directory for the
// cache's L2/L3 files and the engine's persisted configuration.
func GetDefaultStateDir() string {
	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		return filepath.Join(stateDir, "blockvaultd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "blockvaultd")
	}
	return filepath.Join(home, ".local", "state", "blockvaultd")
}
