// Package http wires the application services to a chi router.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idxcast/internal/config"
	"idxcast/internal/middleware"
	"idxcast/internal/services"
)

// Router assembles the middleware chain and API routes.
func Router(cfg *config.Config, pipeline *services.PipelineService, health *services.HealthService, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Metrics)
	r.Use(middleware.Recoverer(logger))
	if cfg.Security.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.Security.RateLimit.RPS, cfg.Security.RateLimit.Burst))
	}

	trainHandler := NewTrainHandler(pipeline, logger)
	healthHandler := NewHealthHandler(health, logger)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.HealthCheck)
		r.Post("/prepare", trainHandler.Prepare)
		r.Post("/train", trainHandler.Train)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}
