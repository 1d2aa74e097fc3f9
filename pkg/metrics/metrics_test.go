package metrics

import "testing"

func TestDisabledByDefault(t *testing.T) {
	Reset()
	if IsEnabled() {
		t.Error("IsEnabled() should be false before InitRegistry")
	}
}

func TestInitRegistryEnables(t *testing.T) {
	Reset()
	defer Reset()

	reg := InitRegistry()
	if reg == nil {
		t.Fatal("InitRegistry returned nil registry")
	}
	if !IsEnabled() {
		t.Error("IsEnabled() should be true after InitRegistry")
	}
}

func TestGetRegistryNeverNil(t *testing.T) {
	Reset()
	defer Reset()

	if GetRegistry() == nil {
		t.Error("GetRegistry() should never return nil, even when disabled")
	}
}

func TestNewCacheMetricsNilWhenDisabled(t *testing.T) {
	Reset()
	if m := NewCacheMetrics(); m != nil {
		t.Error("NewCacheMetrics() should return nil when metrics disabled")
	}
}

func TestNewDedupMetricsNilWhenDisabled(t *testing.T) {
	Reset()
	if m := NewDedupMetrics(); m != nil {
		t.Error("NewDedupMetrics() should return nil when metrics disabled")
	}
}

func TestNewCompressMetricsNilWhenDisabled(t *testing.T) {
	Reset()
	if m := NewCompressMetrics(); m != nil {
		t.Error("NewCompressMetrics() should return nil when metrics disabled")
	}
}

func TestNilSafeHelpersDoNotPanic(t *testing.T) {
	Reset()
	ObserveGet(nil, "l1", true, 0)
	ObservePut(nil, "l1", 10, 0)
	RecordEviction(nil, "l1")
	RecordTierBytes(nil, "l1", 10)
	RecordDirtyFraction(nil, 0.5)
	RecordLookup(nil, true)
	RecordSavedBytes(nil, 10)
	RecordIndexed(nil)
	RecordClass(nil, "text")
	RecordAlgo(nil, "zstd")
	RecordCompressSavedBytes(nil, 10)
	ObserveCompress(nil, "zstd", 0)
}
