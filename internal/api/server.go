// Package api exposes the analytics pipeline over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nexgen-logistics/lanewatch/internal/domain"
	"github.com/nexgen-logistics/lanewatch/internal/pipeline"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, runner *pipeline.Runner, cache domain.Cache, version string) *Server {
	handler := NewHandler(runner, cache, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for the dashboard frontend
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// Analytics views over the filtered record set
	router.Get("/summary", handler.Summary)
	router.Get("/orders", handler.Orders)
	router.Get("/routes/risk", handler.RouteRisk)
	router.Get("/routes/efficiency", handler.RouteEfficiency)
	router.Get("/recommendations", handler.Recommendations)
	router.Get("/emissions", handler.Emissions)
	router.Get("/anomalies", handler.Anomalies)
	router.Get("/fleet", handler.Fleet)
	router.Get("/warehouse", handler.Warehouse)

	// Predictive models
	router.Get("/models/cost", handler.CostModel)
	router.Get("/models/delay", handler.DelayModel)
	router.Post("/models/cost/predict", handler.PredictCost)
	router.Post("/models/delay/predict", handler.PredictDelay)

	// Dataset lifecycle
	router.Post("/reload", handler.Reload)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
