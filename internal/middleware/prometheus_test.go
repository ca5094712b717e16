// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/reelrank/reelrank/internal/metrics"
)

func TestPrometheusMetrics_RecordsRequest(t *testing.T) {
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/instrumented", "404"))

	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/instrumented", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}

	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/instrumented", "404"))
	if after != before+1 {
		t.Errorf("Expected request counter to increment, got %f -> %f", before, after)
	}
}

func TestPrometheusMetrics_DefaultsToOK(t *testing.T) {
	before := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/implicit", "200"))

	// Handler writes the body without calling WriteHeader.
	handler := PrometheusMetrics(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/implicit", nil))

	after := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/implicit", "200"))
	if after != before+1 {
		t.Errorf("Expected implicit 200 to be recorded, got %f -> %f", before, after)
	}
}

func TestAccessLog_PassesThrough(t *testing.T) {
	handler := AccessLog(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/add", nil))

	if rec.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rec.Code)
	}
	if rec.Body.String() != "created" {
		t.Errorf("Expected body to pass through, got %q", rec.Body.String())
	}
}
