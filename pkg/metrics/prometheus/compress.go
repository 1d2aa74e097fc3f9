package prometheus

import (
	"time"

	"github.com/blockvault/blockvault/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterCompressMetricsConstructor(newCompressMetrics)
}

type compressMetrics struct {
	classifications *prometheus.CounterVec
	algoSelections  *prometheus.CounterVec
	savedBytes      prometheus.Counter
	duration        *prometheus.HistogramVec
}

func newCompressMetrics() metrics.CompressMetrics {
	reg := metrics.GetRegistry()

	return &compressMetrics{
		classifications: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockvault_compress_class_total",
				Help: "Content classification decisions by class.",
			},
			[]string{"class"},
		),
		algoSelections: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockvault_compress_algo_total",
				Help: "Compression algorithm selections.",
			},
			[]string{"algo"},
		),
		savedBytes: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "blockvault_compress_saved_bytes_total",
				Help: "Total bytes saved by effective compression.",
			},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockvault_compress_duration_seconds",
				Help:    "Duration of compress calls by algorithm.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"algo"},
		),
	}
}

func (m *compressMetrics) RecordClass(class string) {
	m.classifications.WithLabelValues(class).Inc()
}

func (m *compressMetrics) RecordAlgo(algo string) {
	m.algoSelections.WithLabelValues(algo).Inc()
}

func (m *compressMetrics) RecordSavedBytes(n uint64) {
	m.savedBytes.Add(float64(n))
}

func (m *compressMetrics) ObserveCompress(algo string, d time.Duration) {
	m.duration.WithLabelValues(algo).Observe(d.Seconds())
}
