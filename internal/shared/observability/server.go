// # internal/shared/observability/server.go
package observability

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HealthStatus struct {
	Status    string    `json:"status"`
	Runs      uint64    `json:"runs"`
	LastRunID string    `json:"last_run_id,omitempty"`
	LastRunAt time.Time `json:"last_run_at,omitzero"`
	HeapMB    uint64    `json:"heap_mb"`
}

// Server exposes /metrics and /health while watch mode is running.
type Server struct {
	addr   string
	status func() HealthStatus
	server *http.Server
}

func NewServer(addr string, status func() HealthStatus) *Server {
	return &Server{addr: addr, status: status}
}

func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := s.status()
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "up" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(status)
	})

	s.server = &http.Server{
		Addr:    s.addr,
		Handler: mux,
	}

	slog.Info("observability server starting", "addr", s.addr)

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()

	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
