// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

// Package tmdb provides the client for The Movie Database API.
//
// The client wraps every request with a token bucket rate limiter (TMDB
// allows ~50 requests/second on the free tier) and a circuit breaker so a
// TMDB outage fails fast instead of stacking up slow requests. Responses
// are decoded into the typed schemas in internal/models; unknown fields
// are ignored.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/reelrank/reelrank/internal/config"
	"github.com/reelrank/reelrank/internal/logging"
	"github.com/reelrank/reelrank/internal/metrics"
	"github.com/reelrank/reelrank/internal/models"
)

// requestsPerSecond caps outbound TMDB traffic below the free tier limit.
const requestsPerSecond = 40

// breakerName labels the circuit breaker metric families.
const breakerName = "tmdb-api"

// Error describes a non-2xx TMDB API response.
type Error struct {
	StatusCode int
	Operation  string
}

func (e *Error) Error() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Sprintf("tmdb %s: invalid API key (HTTP 401)", e.Operation)
	case http.StatusTooManyRequests:
		return fmt.Sprintf("tmdb %s: rate limited (HTTP 429)", e.Operation)
	default:
		return fmt.Sprintf("tmdb %s: HTTP %d", e.Operation, e.StatusCode)
	}
}

// Client is a TMDB API client. Create with NewClient; it is safe for
// concurrent use.
type Client struct {
	cfg        *config.TMDBConfig
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker[any]
	limiter    *rate.Limiter
}

// NewClient creates a TMDB client from configuration.
//
// Circuit breaker configuration:
// - Max 3 concurrent requests in half-open state
// - 1 minute measurement window
// - 2 minute timeout before attempting recovery
// - Opens after 60% failure rate with minimum 10 requests
func NewClient(cfg *config.TMDBConfig) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("tmdb: invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		cb:      cb,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}, nil
}

// Search queries TMDB for movies matching the given title and returns the
// candidates in the order TMDB ranked them.
func (c *Client) Search(ctx context.Context, title string) ([]models.Candidate, error) {
	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("query", title)

	var resp models.SearchResponse
	if err := c.get(ctx, "search", "/search/movie?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(resp.Results))
	for _, result := range resp.Results {
		candidates = append(candidates, models.Candidate{
			Title:       result.Title,
			ReleaseDate: result.ReleaseDate,
			TMDBID:      result.ID,
		})
	}
	return candidates, nil
}

// GetDetails fetches full movie details by TMDB id. The response is
// validated so records missing a title or release year never reach the
// store.
func (c *Client) GetDetails(ctx context.Context, tmdbID int64) (*models.MovieDetails, error) {
	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)

	var details models.MovieDetails
	if err := c.get(ctx, "details", fmt.Sprintf("/movie/%d?%s", tmdbID, q.Encode()), &details); err != nil {
		return nil, err
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}
	return &details, nil
}

// PosterURL returns the full poster URL for a TMDB poster path, or the
// empty string when the movie has no poster.
func (c *Client) PosterURL(posterPath string) string {
	if posterPath == "" {
		return ""
	}
	return c.cfg.ImageBaseURL + posterPath
}

// get performs a rate-limited GET through the circuit breaker and decodes
// the JSON response into dst.
func (c *Client) get(ctx context.Context, operation, path string, dst any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("tmdb %s: rate limiter: %w", operation, err)
	}

	start := time.Now()
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.doRequest(ctx, operation, path, dst)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "rejected").Inc()
		metrics.RecordTMDBRejection(operation)
		logging.Warn().Err(err).Str("operation", operation).Msg("[CIRCUIT BREAKER] Request rejected")
		return fmt.Errorf("tmdb %s: %w", operation, err)
	}

	result := "success"
	if err != nil {
		result = "failure"
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, result).Inc()
	metrics.RecordTMDBRequest(operation, time.Since(start), err)
	return err
}

// doRequest issues one HTTP request against the TMDB API.
func (c *Client) doRequest(ctx context.Context, operation, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("tmdb %s: build request: %w", operation, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb %s: request failed: %w", operation, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return &Error{StatusCode: resp.StatusCode, Operation: operation}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("tmdb %s: decode response: %w", operation, err)
	}
	return nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
