package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/blockvault/blockvault/internal/logger"
	"github.com/blockvault/blockvault/internal/telemetry"
	"github.com/blockvault/blockvault/pkg/blockmap"
	"github.com/blockvault/blockvault/pkg/cache"
	"github.com/blockvault/blockvault/pkg/daemonconfig"
	"github.com/blockvault/blockvault/pkg/engine"
	"github.com/blockvault/blockvault/pkg/metrics"
	"github.com/blockvault/blockvault/pkg/metricsserver"
	"github.com/spf13/cobra"

	// Import the Prometheus metrics backend to register its init()
	// constructors with pkg/metrics.
	_ "github.com/blockvault/blockvault/pkg/metrics/prometheus"
)

const defaultShutdownTimeout = 5 * time.Second

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the blockvaultd storage engine",
	Long: `Start the blockvaultd storage engine in the foreground.

Use --config to specify a custom configuration file, or it will use
the default location at $XDG_CONFIG_HOME/blockvaultd/config.yaml.`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := daemonconfig.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "blockvaultd",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Profiling.Enabled,
		ServiceName:    "blockvaultd",
		ServiceVersion: Version,
		Endpoint:       cfg.Profiling.Endpoint,
		ProfileTypes:   cfg.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	logger.Info("blockvaultd starting", "config", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("telemetry enabled", "endpoint", cfg.Telemetry.Endpoint)
	}

	var metricsSrv *metricsserver.Server
	if cfg.Metrics.Enabled {
		reg := metrics.InitRegistry()
		metricsSrv = metricsserver.New(cfg.Metrics.Port, reg)
		go func() {
			if err := metricsSrv.Serve(); err != nil {
				logger.Error("metrics server error", "error", err)
			}
		}()
		logger.Info("metrics enabled", "port", cfg.Metrics.Port)
	} else {
		logger.Info("metrics collection disabled")
	}

	e, err := engine.New(engine.Config{
		Cache: cache.Config{
			L1MaxBytes:      cfg.Cache.L1MaxBytes,
			L2Path:          cfg.Cache.L2Path,
			L2SlotCount:     cfg.Cache.L2SlotCount,
			BlockSize:       cfg.Cache.BlockSize,
			L3Dir:           cfg.Cache.L3Dir,
			L3Capacity:      cfg.Cache.L3Capacity,
			L3MaxEntries:    cfg.Cache.L3MaxEntries,
			L3ExpireSeconds: cfg.Cache.L3ExpireSeconds,
		},
		ConfigPath:        cfg.Engine.ConfigPath,
		Dedup:             cfg.Engine.Dedup,
		Splitter:          blockmap.DefaultSplitterConfig(),
		SweepInterval:     cfg.Scheduler.SweepInterval,
		RetentionInterval: cfg.Scheduler.RetentionInterval,
		MetricsEnabled:    cfg.Metrics.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize storage engine: %w", err)
	}
	logger.Info("storage engine initialized", "cache_l2_path", cfg.Cache.L2Path, "cache_l3_dir", cfg.Cache.L3Dir)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("blockvaultd is running. Press Ctrl+C to stop.")
	<-sigChan
	signal.Stop(sigChan)
	logger.Info("shutdown signal received, initiating graceful shutdown")
	cancel()

	if metricsSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer shutdownCancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics server shutdown error", "error", err)
		}
	}

	if err := e.Close(); err != nil {
		logger.Error("storage engine shutdown error", "error", err)
		return err
	}
	logger.Info("blockvaultd stopped gracefully")
	return nil
}
