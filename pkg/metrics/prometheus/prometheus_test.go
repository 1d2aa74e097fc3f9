package prometheus

import (
	"testing"
	"time"

	"github.com/blockvault/blockvault/pkg/metrics"
)

func TestConstructorsRegisteredViaInit(t *testing.T) {
	metrics.Reset()
	defer metrics.Reset()
	metrics.InitRegistry()

	if m := metrics.NewCacheMetrics(); m == nil {
		t.Error("NewCacheMetrics() should be non-nil once this package is imported and metrics enabled")
	}
	if m := metrics.NewDedupMetrics(); m == nil {
		t.Error("NewDedupMetrics() should be non-nil once this package is imported and metrics enabled")
	}
	if m := metrics.NewCompressMetrics(); m == nil {
		t.Error("NewCompressMetrics() should be non-nil once this package is imported and metrics enabled")
	}
}

func TestCacheMetricsRecordsWithoutPanicking(t *testing.T) {
	metrics.Reset()
	defer metrics.Reset()
	metrics.InitRegistry()

	m := metrics.NewCacheMetrics()
	m.ObserveGet("l1", true, time.Millisecond)
	m.ObserveGet("l2", false, time.Millisecond)
	m.ObservePut("l1", 4096, time.Millisecond)
	m.RecordEviction("l1")
	m.RecordTierBytes("l1", 1024)
	m.RecordDirtyFraction(0.25)
}

func TestDedupMetricsRecordsWithoutPanicking(t *testing.T) {
	metrics.Reset()
	defer metrics.Reset()
	metrics.InitRegistry()

	m := metrics.NewDedupMetrics()
	m.RecordLookup(true)
	m.RecordSavedBytes(4096)
	m.RecordIndexed()
}

func TestCompressMetricsRecordsWithoutPanicking(t *testing.T) {
	metrics.Reset()
	defer metrics.Reset()
	metrics.InitRegistry()

	m := metrics.NewCompressMetrics()
	m.RecordClass("text")
	m.RecordAlgo("zstd")
	m.RecordSavedBytes(2048)
	m.ObserveCompress("zstd", time.Millisecond)
}
