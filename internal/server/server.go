// Package server exposes the probe engine over HTTP: POST /probe streams
// NDJSON probe events as they are produced.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/forgelab/dataprobe/internal/config"
	"github.com/forgelab/dataprobe/internal/report"
	"github.com/forgelab/dataprobe/internal/runtime"
)

// Server runs the probe HTTP endpoint.
type Server struct {
	addr   string
	runner *runtime.Runner
	logger *slog.Logger
	server *http.Server
}

// New creates a server on addr backed by the given runner.
func New(addr string, runner *runtime.Runner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{addr: addr, runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(TimeoutMiddleware(10 * time.Minute))
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "dataprobe")
	})

	r.Post("/probe", s.handleProbe)
	r.Get("/healthz", s.handleHealthz)

	s.server = &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// No WriteTimeout: the probe event stream stays open for the
		// duration of the run.
	}
	return s
}

// Handler exposes the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("probe server listening", slog.String("addr", s.addr))
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// handleProbe decodes a probe request and streams NDJSON events back.
// Everything after the headers is event framing; even a fatal error is
// delivered as an error event followed by complete.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	var req config.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	sink := report.NewStreamSink(w, "")
	s.runner.Run(r.Context(), &req, sink)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
