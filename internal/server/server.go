// Package server exposes the mapping service over HTTP.
//
// It serves:
//   - POST /api/mapping/map and /api/mapping/recommendations
//   - POST /api/catalog
//   - liveness and readiness probes under /health
//
// Shutdown drains in-flight requests and fails readiness while it does.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/felixgeelhaar/flowbind/internal/catalog"
	"github.com/felixgeelhaar/flowbind/internal/health"
	"github.com/felixgeelhaar/flowbind/internal/log"
	"github.com/felixgeelhaar/flowbind/internal/mapping"
)

// Server serves the mapping API
type Server struct {
	httpServer      *http.Server
	handler         http.Handler
	service         *mapping.Service
	cache           *catalog.Cache
	probes          *health.Probes
	logger          *log.Logger
	maxBodyBytes    int64
	shutdownTimeout time.Duration
}

// Config holds server configuration
type Config struct {
	// Address is the listen address (e.g. ":8080")
	Address string

	// ShutdownTimeout bounds how long Shutdown waits for connections to drain.
	// Defaults to 10 seconds.
	ShutdownTimeout time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MaxBodyBytes caps request bodies. Defaults to 10 MiB.
	MaxBodyBytes int64
}

func (c *Config) applyDefaults() {
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 10 << 20
	}
}

// New creates a server. The cache is shared by every request.
func New(service *mapping.Service, cache *catalog.Cache, probes *health.Probes, logger *log.Logger, cfg Config) *Server {
	cfg.applyDefaults()
	if logger == nil {
		logger = log.DefaultLogger()
	}

	s := &Server{
		service:         service,
		cache:           cache,
		probes:          probes,
		logger:          logger,
		maxBodyBytes:    cfg.MaxBodyBytes,
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/mapping/map", s.handleMap)
	mux.HandleFunc("POST /api/mapping/recommendations", s.handleRecommendations)
	mux.HandleFunc("POST /api/catalog", s.handleCatalog)
	mux.HandleFunc("GET /health/live", s.handleLiveness)
	mux.HandleFunc("GET /health/ready", s.handleReadiness)

	s.handler = requestID(s.logRequests(mux))
	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start marks the service ready and blocks serving requests. It returns
// http.ErrServerClosed after a graceful shutdown.
func (s *Server) Start() error {
	s.probes.MarkInitialized()
	s.logger.Info("server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown fails readiness, stops keep-alives and waits for in-flight requests
// for at most the configured shutdown timeout
func (s *Server) Shutdown(ctx context.Context) error {
	s.probes.MarkShutdown()
	s.httpServer.SetKeepAlivesEnabled(false)

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	s.logger.Info("server shutting down", "timeout", s.shutdownTimeout)
	return s.httpServer.Shutdown(shutdownCtx)
}

// IsShuttingDown reports whether Shutdown has been called
func (s *Server) IsShuttingDown() bool {
	return s.probes.IsShuttingDown()
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	s.writeProbe(w, s.probes.Liveness(r.Context()))
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	s.writeProbe(w, s.probes.Readiness(r.Context()))
}

func (s *Server) writeProbe(w http.ResponseWriter, result *health.ProbeResult) {
	status := http.StatusOK
	if result.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, result)
}
