// Package rest exposes the roadmap, index and FIR services over HTTP.
package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driving"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	version    string

	// Services
	roadmapService driving.RoadmapService
	indexService   driving.IndexService
	firService     driving.FIRService
}

// Config holds server configuration
type Config struct {
	Host    string
	Port    int
	Version string

	// AllowedOrigins configures CORS. Empty means allow any origin,
	// matching the original deployment behind a separate web UI.
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:    "0.0.0.0",
		Port:    8080,
		Version: "dev",
	}
}

// NewServer creates a new HTTP server
func NewServer(
	cfg Config,
	roadmapService driving.RoadmapService,
	indexService driving.IndexService,
	firService driving.FIRService,
) *Server {
	s := &Server{
		router:         http.NewServeMux(),
		version:        cfg.Version,
		roadmapService: roadmapService,
		indexService:   indexService,
		firService:     firService,
	}

	s.setupRoutes()

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// Middleware chain, outermost first. Recovery sits closest to the
	// handlers so the logging layer still records the 500.
	var handler http.Handler = s.router
	handler = NewRecoveryMiddleware().Handler(handler)
	handler = NewCORSMiddleware(origins).Handler(handler)
	handler = NewLoggingMiddleware().Handler(handler)
	handler = NewRequestIDMiddleware().Handler(handler)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Service banner and version (no prefix, as in the original)
	s.router.HandleFunc("GET /{$}", s.handleRoot)
	s.router.HandleFunc("GET /version", s.handleVersion)

	// API endpoints
	s.router.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.router.HandleFunc("POST /api/v1/query", s.handleQuery)
	s.router.HandleFunc("POST /api/v1/ingest", s.handleIngest)
	s.router.HandleFunc("POST /api/v1/send-fir-email", s.handleSendFIREmail)
}

// Start runs the server until ctx is cancelled, then shuts down
// gracefully. In-flight requests get 30 seconds to finish.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		logger.Info("Serving HTTP on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}
