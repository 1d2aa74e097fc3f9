package prometheus

import (
	"github.com/blockvault/blockvault/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterDedupMetricsConstructor(newDedupMetrics)
}

type dedupMetrics struct {
	lookups     *prometheus.CounterVec
	savedBytes  prometheus.Counter
	indexed     prometheus.Counter
}

func newDedupMetrics() metrics.DedupMetrics {
	reg := metrics.GetRegistry()

	return &dedupMetrics{
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockvault_dedup_lookups_total",
				Help: "Fingerprint Index lookups by outcome.",
			},
			[]string{"outcome"}, // "hit", "miss"
		),
		savedBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "blockvault_dedup_saved_bytes_total",
				Help: "Total bytes saved by deduplication.",
			},
		),
		indexed: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "blockvault_dedup_indexed_total",
				Help: "Total fingerprints newly added to the index.",
			},
		),
	}
}

func (m *dedupMetrics) RecordLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.lookups.WithLabelValues(outcome).Inc()
}

func (m *dedupMetrics) RecordSavedBytes(n uint64) {
	m.savedBytes.Add(float64(n))
}

func (m *dedupMetrics) RecordIndexed() {
	m.indexed.Inc()
}
