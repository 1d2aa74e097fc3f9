package metrics

import "time"

// CacheMetrics observes the multi-tier block cache (spec.md §4.7).
// Implementations are safe to call with a nil receiver is not
// required — callers use the package-level Observe*/Record* helpers,
// which nil-check before dispatching, mirroring pkg/cache's own
// nil-tolerant style.
type CacheMetrics interface {
	// ObserveGet records a tier lookup ("l1", "l2", "l3") and whether
	// it hit or missed, with how long the lookup took.
	ObserveGet(tier string, hit bool, duration time.Duration)

	// ObservePut records a tier write and its payload size.
	ObservePut(tier string, bytes int64, duration time.Duration)

	// RecordEviction records an eviction from the named tier.
	RecordEviction(tier string)

	// RecordTierBytes records a tier's current resident byte size
	// (L1 accounted bytes, L3 current bytes).
	RecordTierBytes(tier string, bytes int64)

	// RecordDirtyFraction records the L2 dirty-slot fraction observed
	// by the writeback scheduler before a flush pass.
	RecordDirtyFraction(fraction float64)
}

// NewCacheMetrics returns a Prometheus-backed CacheMetrics, or nil if
// metrics are not enabled.
func NewCacheMetrics() CacheMetrics {
	if !IsEnabled() || newPrometheusCacheMetrics == nil {
		return nil
	}
	return newPrometheusCacheMetrics()
}

// newPrometheusCacheMetrics is registered by pkg/metrics/prometheus's
// init(), breaking the import cycle that a direct dependency on that
// package would create.
var newPrometheusCacheMetrics func() CacheMetrics

// RegisterCacheMetricsConstructor registers the Prometheus cache
// metrics constructor. Called from pkg/metrics/prometheus/cache.go.
func RegisterCacheMetricsConstructor(constructor func() CacheMetrics) {
	newPrometheusCacheMetrics = constructor
}

// ObserveGet is a nil-safe wrapper around CacheMetrics.ObserveGet.
func ObserveGet(m CacheMetrics, tier string, hit bool, d time.Duration) {
	if m != nil {
		m.ObserveGet(tier, hit, d)
	}
}

// ObservePut is a nil-safe wrapper around CacheMetrics.ObservePut.
func ObservePut(m CacheMetrics, tier string, bytes int64, d time.Duration) {
	if m != nil {
		m.ObservePut(tier, bytes, d)
	}
}

// RecordEviction is a nil-safe wrapper around CacheMetrics.RecordEviction.
func RecordEviction(m CacheMetrics, tier string) {
	if m != nil {
		m.RecordEviction(tier)
	}
}

// RecordTierBytes is a nil-safe wrapper around CacheMetrics.RecordTierBytes.
func RecordTierBytes(m CacheMetrics, tier string, bytes int64) {
	if m != nil {
		m.RecordTierBytes(tier, bytes)
	}
}

// RecordDirtyFraction is a nil-safe wrapper around CacheMetrics.RecordDirtyFraction.
func RecordDirtyFraction(m CacheMetrics, fraction float64) {
	if m != nil {
		m.RecordDirtyFraction(fraction)
	}
}
