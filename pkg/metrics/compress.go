package metrics

import "time"

// CompressMetrics observes the adaptive compression selector
// (spec.md §4.2, §4.3).
type CompressMetrics interface {
	// RecordClass records a content classification decision
	// ("text", "binary", "compressed", "unknown").
	RecordClass(class string)

	// RecordAlgo records the algorithm chosen for a compress call
	// ("none", "lz4", "zstd", "gzip").
	RecordAlgo(algo string)

	// RecordSavedBytes records plainSize - storedSize for an
	// effective compression.
	RecordSavedBytes(n uint64)

	// ObserveCompress records how long a compress call for the given
	// algorithm took.
	ObserveCompress(algo string, duration time.Duration)
}

// NewCompressMetrics returns a Prometheus-backed CompressMetrics, or
// nil if metrics are not enabled.
func NewCompressMetrics() CompressMetrics {
	if !IsEnabled() || newPrometheusCompressMetrics == nil {
		return nil
	}
	return newPrometheusCompressMetrics()
}

var newPrometheusCompressMetrics func() CompressMetrics

// RegisterCompressMetricsConstructor registers the Prometheus
// compress metrics constructor. Called from
// pkg/metrics/prometheus/compress.go.
func RegisterCompressMetricsConstructor(constructor func() CompressMetrics) {
	newPrometheusCompressMetrics = constructor
}

// RecordClass is a nil-safe wrapper around CompressMetrics.RecordClass.
func RecordClass(m CompressMetrics, class string) {
	if m != nil {
		m.RecordClass(class)
	}
}

// RecordAlgo is a nil-safe wrapper around CompressMetrics.RecordAlgo.
func RecordAlgo(m CompressMetrics, algo string) {
	if m != nil {
		m.RecordAlgo(algo)
	}
}

// RecordCompressSavedBytes is a nil-safe wrapper around CompressMetrics.RecordSavedBytes.
func RecordCompressSavedBytes(m CompressMetrics, n uint64) {
	if m != nil {
		m.RecordSavedBytes(n)
	}
}

// ObserveCompress is a nil-safe wrapper around CompressMetrics.ObserveCompress.
func ObserveCompress(m CompressMetrics, algo string, d time.Duration) {
	if m != nil {
		m.ObserveCompress(algo, d)
	}
}
