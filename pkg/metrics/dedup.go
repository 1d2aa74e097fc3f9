package metrics

// DedupMetrics observes the Dedup Pipeline and Fingerprint Index
// (spec.md §4.1, §4.4).
type DedupMetrics interface {
	// RecordLookup records a Fingerprint Index lookup outcome.
	RecordLookup(hit bool)

	// RecordSavedBytes records bytes saved by a dedup hit (the size
	// of the slot's prior content, now replaced by a shared Block).
	RecordSavedBytes(n uint64)

	// RecordIndexed records a new fingerprint being added to the index.
	RecordIndexed()
}

// NewDedupMetrics returns a Prometheus-backed DedupMetrics, or nil if
// metrics are not enabled.
func NewDedupMetrics() DedupMetrics {
	if !IsEnabled() || newPrometheusDedupMetrics == nil {
		return nil
	}
	return newPrometheusDedupMetrics()
}

var newPrometheusDedupMetrics func() DedupMetrics

// RegisterDedupMetricsConstructor registers the Prometheus dedup
// metrics constructor. Called from pkg/metrics/prometheus/dedup.go.
func RegisterDedupMetricsConstructor(constructor func() DedupMetrics) {
	newPrometheusDedupMetrics = constructor
}

// RecordLookup is a nil-safe wrapper around DedupMetrics.RecordLookup.
func RecordLookup(m DedupMetrics, hit bool) {
	if m != nil {
		m.RecordLookup(hit)
	}
}

// RecordSavedBytes is a nil-safe wrapper around DedupMetrics.RecordSavedBytes.
func RecordSavedBytes(m DedupMetrics, n uint64) {
	if m != nil {
		m.RecordSavedBytes(n)
	}
}

// RecordIndexed is a nil-safe wrapper around DedupMetrics.RecordIndexed.
func RecordIndexed(m DedupMetrics) {
	if m != nil {
		m.RecordIndexed()
	}
}
