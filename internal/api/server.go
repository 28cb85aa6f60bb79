package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/orbit/orbitguard/internal/flux"
	"github.com/orbit/orbitguard/internal/health"
	"github.com/orbit/orbitguard/internal/metrics"
	"github.com/orbit/orbitguard/internal/propagation"
	"github.com/orbit/orbitguard/internal/tle"
)

// Config holds HTTP-facing settings.
type Config struct {
	Addr           string
	SampleTLEPath  string // optional override for the bundled sample fixture
	MaxListLimit   int
	MaxSamples     int // CPU budget: cap on samples per propagation request
	DefaultMinutes int
	DefaultStepS   int
}

// DefaultConfig returns the standard limits.
func DefaultConfig(addr string) Config {
	return Config{
		Addr:           addr,
		MaxListLimit:   1000,
		MaxSamples:     90000,
		DefaultMinutes: 120,
		DefaultStepS:   60,
	}
}

// Server exposes the engine over HTTP/JSON.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	cfg       Config
	store     *tle.Store
	prop      *propagation.Propagator
	table     *flux.Table
	snapshots *tle.Snapshots // nil disables on-disk snapshots
}

// NewServer creates a configured HTTP server.
func NewServer(cfg Config, logger *slog.Logger, store *tle.Store, prop *propagation.Propagator, table *flux.Table, snapshots *tle.Snapshots) *Server {
	s := &Server{
		logger:    logger,
		cfg:       cfg,
		store:     store,
		prop:      prop,
		table:     table,
		snapshots: snapshots,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(func() bool { return s.table != nil }))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /api/v1/tle/load", s.handleTLELoad)
	mux.HandleFunc("GET /api/v1/objects", s.handleObjects)
	mux.HandleFunc("GET /api/v1/propagate", s.handlePropagate)
	mux.HandleFunc("GET /api/v1/risk/flux", s.handleFlux)
	mux.HandleFunc("GET /api/v1/risk/collision", s.handleCollision)
	mux.HandleFunc("POST /api/v1/risk/proximity", s.handleProximity)

	// Middleware chain: metrics -> tracing -> request id -> logging -> mux.
	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware(handler)
	handler = tracingMiddleware(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// HTTPServer returns the underlying *http.Server for external control.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Handler returns the full middleware-wrapped handler (used by tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}
