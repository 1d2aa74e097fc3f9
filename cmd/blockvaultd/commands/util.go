package commands

import (
	"fmt"

	"github.com/blockvault/blockvault/internal/logger"
	"github.com/blockvault/blockvault/pkg/daemonconfig"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *daemonconfig.Config) error {
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if daemonconfig.DefaultConfigExists() {
		return daemonconfig.GetDefaultConfigPath()
	}
	return "defaults"
}
