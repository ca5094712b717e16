// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reelrank/reelrank/internal/config"
	"github.com/reelrank/reelrank/internal/metrics"
	"github.com/reelrank/reelrank/internal/middleware"
)

// NewRouter builds the chi router with the full middleware stack and all
// routes: the HTML pages, the JSON API, and the Prometheus endpoint.
func NewRouter(cfg *config.Config, handler *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
	r.Use(rateLimit(&cfg.Security))

	// HTML pages
	r.Get("/", handler.Index)
	r.Get("/add", handler.AddForm)
	r.Post("/add", handler.AddSubmit)
	r.Get("/edit", handler.Edit)
	r.Post("/edit", handler.EditSubmit)
	r.Get("/delete", handler.Delete)

	// JSON API. CORS is scoped here; the HTML pages are same-origin only.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Security.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))

		r.Get("/health", handler.Health)
		r.Get("/movies", handler.ListMovies)
		r.Get("/movies/{id}", handler.GetMovie)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}

// rateLimit returns the IP-keyed limiter, or a no-op when disabled.
func rateLimit(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		cfg.RateLimitReqs,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.HTTPRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
		}),
	)
}
