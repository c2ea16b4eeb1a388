// Package api provides the HTTP API for the Careflow priority engine.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/careflowhq/careflow/pkg/observability"
)

// Server is the HTTP API server for the priority engine.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler *PriorityHandler
	auth    *AuthMiddleware
	health  *observability.HealthRegistry
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new priority API server.
func NewServer(cfg ServerConfig, handler *PriorityHandler, auth *AuthMiddleware, health *observability.HealthRegistry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		mux:     http.NewServeMux(),
		logger:  logger,
		handler: handler,
		auth:    auth,
		health:  health,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      RequestID(RequestLogger(logger)(s.mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// registerRoutes sets up the API routes. Everything under /api/v1 requires
// a valid bearer token.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.Handle("GET /api/v1/priority/tasks", s.auth.Require(http.HandlerFunc(s.handler.GetPrioritizedTasks)))
	s.mux.Handle("POST /api/v1/priority/interaction", s.auth.Require(http.HandlerFunc(s.handler.RecordInteraction)))
	s.mux.Handle("GET /api/v1/priority/model", s.auth.Require(http.HandlerFunc(s.handler.GetModelInfo)))
	s.mux.Handle("POST /api/v1/priority/train", s.auth.Require(http.HandlerFunc(s.handler.TrainModel)))
	s.mux.Handle("GET /api/v1/priority/audit", s.auth.Require(http.HandlerFunc(s.handler.ListAudit)))
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	results := s.health.CheckAll(r.Context())
	overall := observability.Overall(results)

	status := http.StatusOK
	if overall != observability.HealthStatusHealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": overall,
		"checks": results,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting priority API server",
		"addr", s.server.Addr,
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down priority API server")
	return s.server.Shutdown(ctx)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}
