package metricsserver

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_requests_total"})
	reg.MustRegister(counter)
	counter.Inc()

	srv := New(9999, reg)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.http.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "test_requests_total 1") {
		t.Errorf("body missing test_requests_total metric: %s", rec.Body.String())
	}
}

func TestNewSetsListenAddrFromPort(t *testing.T) {
	srv := New(9100, prometheus.NewRegistry())
	if srv.http.Addr != ":9100" {
		t.Errorf("Addr = %q, want \":9100\"", srv.http.Addr)
	}
}
