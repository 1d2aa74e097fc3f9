package prometheus

import (
	"time"

	"github.com/blockvault/blockvault/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func init() {
	metrics.RegisterCacheMetricsConstructor(newCacheMetrics)
}

type cacheMetrics struct {
	getOperations   *prometheus.CounterVec
	getDuration     *prometheus.HistogramVec
	putOperations   *prometheus.CounterVec
	putBytes        *prometheus.HistogramVec
	putDuration     *prometheus.HistogramVec
	evictions       *prometheus.CounterVec
	tierBytes       *prometheus.GaugeVec
	dirtyFraction   prometheus.Gauge
}

func newCacheMetrics() metrics.CacheMetrics {
	reg := metrics.GetRegistry()

	return &cacheMetrics{
		getOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockvault_cache_get_total",
				Help: "Total cache tier lookups by tier and outcome.",
			},
			[]string{"tier", "outcome"}, // outcome: "hit", "miss"
		),
		getDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockvault_cache_get_duration_seconds",
				Help:    "Duration of cache tier lookups.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tier"},
		),
		putOperations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockvault_cache_put_total",
				Help: "Total cache tier writes by tier.",
			},
			[]string{"tier"},
		),
		putBytes: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockvault_cache_put_bytes",
				Help:    "Distribution of bytes written per cache tier put.",
				Buckets: []float64{4096, 65536, 262144, 1048576, 4194304, 16777216},
			},
			[]string{"tier"},
		),
		putDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blockvault_cache_put_duration_seconds",
				Help:    "Duration of cache tier writes.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tier"},
		),
		evictions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "blockvault_cache_evictions_total",
				Help: "Total evictions by tier.",
			},
			[]string{"tier"},
		),
		tierBytes: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "blockvault_cache_tier_bytes",
				Help: "Current resident byte size per tier.",
			},
			[]string{"tier"},
		),
		dirtyFraction: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "blockvault_cache_l2_dirty_fraction",
				Help: "Fraction of L2 slots dirty, observed before a writeback pass.",
			},
		),
	}
}

func (m *cacheMetrics) ObserveGet(tier string, hit bool, d time.Duration) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.getOperations.WithLabelValues(tier, outcome).Inc()
	m.getDuration.WithLabelValues(tier).Observe(d.Seconds())
}

func (m *cacheMetrics) ObservePut(tier string, bytes int64, d time.Duration) {
	m.putOperations.WithLabelValues(tier).Inc()
	m.putBytes.WithLabelValues(tier).Observe(float64(bytes))
	m.putDuration.WithLabelValues(tier).Observe(d.Seconds())
}

func (m *cacheMetrics) RecordEviction(tier string) {
	m.evictions.WithLabelValues(tier).Inc()
}

func (m *cacheMetrics) RecordTierBytes(tier string, bytes int64) {
	m.tierBytes.WithLabelValues(tier).Set(float64(bytes))
}

func (m *cacheMetrics) RecordDirtyFraction(fraction float64) {
	m.dirtyFraction.Set(fraction)
}
