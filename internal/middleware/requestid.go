// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

// Package middleware provides the HTTP middleware stack for the router:
// request IDs, structured access logging, and Prometheus instrumentation.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/reelrank/reelrank/internal/logging"
)

// RequestID generates a unique ID for each request and adds it to both the
// response header and the request context. An ID supplied by an upstream
// proxy via X-Request-ID is kept. Handlers read the ID back through
// logging.RequestIDFromContext.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// Add to response header for client visibility
		w.Header().Set("X-Request-ID", requestID)

		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
