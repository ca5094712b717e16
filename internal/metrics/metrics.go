// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

// Package metrics provides Prometheus instrumentation for the application.
//
// Metrics are registered with the default registry via promauto and exposed
// at the /metrics endpoint in Prometheus text format. The package covers:
//   - HTTP request latency and throughput
//   - DuckDB query performance for the movie store
//   - TMDB client request outcomes and circuit breaker state
//   - The current number of stored movies
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	HTTPRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Movie Store Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	MoviesStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "movies_stored",
			Help: "Current number of movies in the store",
		},
	)

	// TMDB Client Metrics
	TMDBRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tmdb_requests_total",
			Help: "Total number of TMDB API requests",
		},
		[]string{"operation", "result"}, // result: "success", "failure", "rejected"
	)

	TMDBRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tmdb_request_duration_seconds",
			Help:    "TMDB API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight request gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// RecordDBQuery records a movie store query and its outcome.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordTMDBRequest records a TMDB API call and its outcome.
func RecordTMDBRequest(operation string, duration time.Duration, err error) {
	TMDBRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	TMDBRequestsTotal.WithLabelValues(operation, result).Inc()
}

// RecordTMDBRejection records a TMDB call rejected by the circuit breaker
// before any network traffic happened.
func RecordTMDBRejection(operation string) {
	TMDBRequestsTotal.WithLabelValues(operation, "rejected").Inc()
}

// SetMoviesStored updates the stored movie count gauge.
func SetMoviesStored(count int64) {
	MoviesStored.Set(float64(count))
}
