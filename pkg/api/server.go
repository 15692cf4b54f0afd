// Package api exposes the tracking operations over HTTP. It is a thin
// transport binding: handlers marshal JSON in and out of the service
// and relay its errors verbatim.
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server holds the API server state.
type Server struct {
	service  ProductService
	config   ServerConfig
	metrics  *Metrics
	registry *prometheus.Registry
	logger   *zap.Logger
}

// NewServer creates an API server around the given tracking service.
func NewServer(svc ProductService, config ServerConfig, logger *zap.Logger) *Server {
	registry := prometheus.NewRegistry()
	return &Server{
		service:  svc,
		config:   config,
		metrics:  NewMetrics(registry),
		registry: registry,
		logger:   logger,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping).
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey, s.metrics))

		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		r.Post("/products", s.metrics.InstrumentHandler("POST", "/api/v1/products", s.handleCreate))
		r.Get("/products", s.metrics.InstrumentHandler("GET", "/api/v1/products", s.handleList))
		r.Get("/products/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/products/{id}", s.handleGet))
		r.Put("/products/{id}", s.metrics.InstrumentHandler("PUT", "/api/v1/products/{id}", s.handleUpdate))
		r.Delete("/products/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/products/{id}", s.handleDelete))
	})

	return r
}

// Start runs the HTTP server until it fails or the process exits.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Bind, s.config.Port)
	s.logger.Info("starting api server", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Router())
}
