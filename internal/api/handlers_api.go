// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reelrank/reelrank/internal/database"
)

// HealthStatus is the /api/v1/health payload.
type HealthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Movies   int64  `json:"movies"`
}

// Health reports liveness, store connectivity, and the collection size.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.db.Ping(r.Context()); err != nil {
		rw.ServiceUnavailable("Database unreachable")
		return
	}

	count, err := h.db.CountMovies(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.Success(HealthStatus{Status: "ok", Database: "up", Movies: count})
}

// ListMovies returns the ranked collection as JSON. Like the HTML index,
// it recomputes rankings, so the response is always consistent with the
// stored ratings.
func (h *Handler) ListMovies(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	movies, err := h.db.ListMoviesByRating(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	reverse(movies)
	rw.SuccessWithMeta(movies, &APIMeta{Count: len(movies)})
}

// GetMovie returns a single movie by id.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		rw.BadRequest("Invalid movie id")
		return
	}

	movie, err := h.db.GetMovie(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrMovieNotFound) {
			rw.NotFound("Movie not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	rw.Success(movie)
}
