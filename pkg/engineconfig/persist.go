package engineconfig

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blockvault/blockvault/pkg/block"
)

// Persist writes cfg to path in the fixed key=value line order spec.md
// §6 pins: dedup, comp, algo, level, min. Written directly rather than
// through viper, which does not guarantee key order on round-trip.
func Persist(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("engineconfig: persist: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "dedup=%d\n", boolInt(cfg.EnableDedup))
	fmt.Fprintf(w, "comp=%d\n", boolInt(cfg.EnableCompression))
	fmt.Fprintf(w, "algo=%s\n", cfg.Algo)
	fmt.Fprintf(w, "level=%d\n", cfg.Level)
	fmt.Fprintf(w, "min=%d\n", cfg.MinCompressSize)
	return w.Flush()
}

// Load reads a configuration file written by Persist. Missing file is
// not an error; the caller's current (typically default) config is
// left untouched and Load returns false for ok.
func Load(path string) (cfg Config, ok bool, err error) {
	f, openErr := os.Open(path)
	if openErr != nil {
		if os.IsNotExist(openErr) {
			return Config{}, false, nil
		}
		return Config{}, false, fmt.Errorf("engineconfig: load: %w", openErr)
	}
	defer f.Close()

	cfg = Default()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if err := applyLine(&cfg, key, value); err != nil {
			return Config{}, false, err
		}
	}
	if err := scanner.Err(); err != nil {
		return Config{}, false, fmt.Errorf("engineconfig: load: %w", err)
	}
	return cfg, true, nil
}

func applyLine(cfg *Config, key, value string) error {
	switch key {
	case "dedup":
		cfg.EnableDedup = value == "1"
	case "comp":
		cfg.EnableCompression = value == "1"
	case "algo":
		cfg.Algo = parseAlgo(value)
	case "level":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("engineconfig: bad level %q: %w", value, err)
		}
		cfg.Level = n
	case "min":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("engineconfig: bad min %q: %w", value, err)
		}
		cfg.MinCompressSize = n
	}
	return nil
}

func parseAlgo(s string) block.Algo {
	switch s {
	case "lz4":
		return block.AlgoLZ4
	case "zstd":
		return block.AlgoZstd
	case "gzip":
		return block.AlgoGzip
	default:
		return block.AlgoNone
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
