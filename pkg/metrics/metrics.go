// Package metrics defines nil-safe observability interfaces for the
// storage engine's cache, dedup, and compression subsystems. Every
// interface follows the same shape as internal/telemetry's tracer:
// callers get a real collector only after InitRegistry is called,
// and pass nil everywhere otherwise for zero overhead.
//
// The Prometheus-backed implementations live in pkg/metrics/prometheus
// and register themselves into this package's constructors through a
// package-level function variable, so pkg/metrics itself never imports
// pkg/metrics/prometheus (which would cycle back through the
// cache/dedup/compress interfaces it implements).
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.Mutex
	enabled  bool
	registry *prometheus.Registry
)

// InitRegistry creates the process-wide Prometheus registry and marks
// metrics as enabled. Constructors in this package return a real
// collector only after this has been called.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	enabled = true
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

// GetRegistry returns the process-wide registry, lazily creating a
// (disabled) one if InitRegistry has not yet run.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	return registry
}

// Reset clears the enabled flag and discards the registry. Exposed
// for test isolation between cases that exercise InitRegistry.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	enabled = false
	registry = nil
}
