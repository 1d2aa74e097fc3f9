// Package metricsserver serves the process's Prometheus registry over
// HTTP. No file in the teacher's pack builds this piece as a dedicated
// type (its own metrics server is constructed inline where the server
// is wired up); this package follows the standard promhttp.Handler
// idiom directly, documented in DESIGN.md as the one ecosystem-standard
// shortcut taken instead of teacher-grounded code.
package metricsserver

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps an *http.Server bound to a Prometheus registry's
// /metrics handler.
type Server struct {
	http *http.Server
}

// New builds a metrics Server listening on port, serving reg at
// /metrics.
func New(port int, reg *prometheus.Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	return &Server{
		http: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		},
	}
}

// Serve starts listening and blocks until the server is shut down, at
// which point it returns nil (matching net/http.Server.Shutdown's
// contract for ErrServerClosed).
func (s *Server) Serve() error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("metricsserver: listen: %w", err)
	}
	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
