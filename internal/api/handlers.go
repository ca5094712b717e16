// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/reelrank/reelrank/internal/database"
	"github.com/reelrank/reelrank/internal/logging"
	"github.com/reelrank/reelrank/internal/metrics"
	"github.com/reelrank/reelrank/internal/models"
	"github.com/reelrank/reelrank/internal/tmdb"
	"github.com/reelrank/reelrank/internal/validation"
)

// MetadataClient is the TMDB surface the handlers need. Declared here so
// tests can substitute a stub for the real client.
type MetadataClient interface {
	Search(ctx context.Context, title string) ([]models.Candidate, error)
	GetDetails(ctx context.Context, tmdbID int64) (*models.MovieDetails, error)
	PosterURL(posterPath string) string
}

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	db       *database.DB
	metadata MetadataClient
}

// NewHandler creates the handler set backed by the given store and
// metadata client.
func NewHandler(db *database.DB, metadata MetadataClient) *Handler {
	return &Handler{
		db:       db,
		metadata: metadata,
	}
}

// Index renders the ranked movie list. Rankings are recomputed from the
// current ratings on every load, so the page always reflects the latest
// edits.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	movies, err := h.db.ListMoviesByRating(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Failed to list movies")
		http.Error(w, "Failed to load movies", http.StatusInternalServerError)
		return
	}

	metrics.SetMoviesStored(int64(len(movies)))

	// The template renders rank 1 at the top.
	reverse(movies)
	renderTemplate(w, r, http.StatusOK, "index.html.tmpl", indexPageData{Movies: movies})
}

// AddForm renders the empty title search form.
func (h *Handler) AddForm(w http.ResponseWriter, r *http.Request) {
	renderTemplate(w, r, http.StatusOK, "add.html.tmpl", addPageData{})
}

// AddSubmit validates the submitted title and renders the TMDB candidates
// to choose from. An invalid title re-renders the form with messages; the
// stored collection is never touched here.
func (h *Handler) AddSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed form data", http.StatusBadRequest)
		return
	}

	form := TitleForm{Title: strings.TrimSpace(r.PostFormValue("title"))}
	if verr := validation.ValidateStruct(&form); verr != nil {
		renderTemplate(w, r, http.StatusBadRequest, "add.html.tmpl", addPageData{
			Title:  form.Title,
			Errors: verr.FieldMessages(),
		})
		return
	}

	candidates, err := h.metadata.Search(r.Context(), form.Title)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("title", form.Title).Msg("TMDB search failed")
		http.Error(w, "Movie search is currently unavailable", http.StatusBadGateway)
		return
	}

	renderTemplate(w, r, http.StatusOK, "select.html.tmpl", selectPageData{
		Query:      form.Title,
		Candidates: candidates,
	})
}

// Edit handles GET /edit in its two modes.
//
// With title_id it fetches the movie's details from TMDB, stores a new
// unrated record, and redirects to the rating form for it. With movie_id
// it renders the rating form for an existing record. Exactly one of the
// two parameters must be present.
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	titleID := r.URL.Query().Get("title_id")
	movieID := r.URL.Query().Get("movie_id")

	switch {
	case titleID != "" && movieID != "":
		http.Error(w, "Provide either title_id or movie_id, not both", http.StatusBadRequest)
	case titleID != "":
		h.editFromTitle(w, r, titleID)
	case movieID != "":
		h.editExisting(w, r, movieID)
	default:
		http.Error(w, "Missing title_id or movie_id", http.StatusBadRequest)
	}
}

// editFromTitle stores a new movie from TMDB details and redirects to its
// rating form.
func (h *Handler) editFromTitle(w http.ResponseWriter, r *http.Request, titleID string) {
	tmdbID, err := strconv.ParseInt(titleID, 10, 64)
	if err != nil {
		http.Error(w, "Invalid title_id", http.StatusBadRequest)
		return
	}

	details, err := h.metadata.GetDetails(r.Context(), tmdbID)
	if err != nil {
		var apiErr *tmdb.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			http.Error(w, "Unknown movie", http.StatusNotFound)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int64("tmdb_id", tmdbID).Msg("TMDB details fetch failed")
		http.Error(w, "Movie lookup is currently unavailable", http.StatusBadGateway)
		return
	}

	year, err := details.Year()
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Int64("tmdb_id", tmdbID).Msg("Unusable TMDB release date")
		http.Error(w, "Movie lookup returned unusable data", http.StatusBadGateway)
		return
	}

	movie := &models.Movie{
		Title:       details.Title,
		Year:        year,
		Description: details.Overview,
		ImgURL:      h.metadata.PosterURL(details.PosterPath),
	}

	if err := h.db.InsertMovie(r.Context(), movie); err != nil {
		if errors.Is(err, database.ErrDuplicateTitle) {
			http.Error(w, "This movie is already in your list", http.StatusConflict)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Str("title", movie.Title).Msg("Failed to store movie")
		http.Error(w, "Failed to store movie", http.StatusInternalServerError)
		return
	}

	logging.Ctx(r.Context()).Info().Int64("movie_id", movie.ID).Str("title", movie.Title).Msg("Movie added")
	http.Redirect(w, r, fmt.Sprintf("/edit?movie_id=%d", movie.ID), http.StatusFound)
}

// editExisting renders the rating form for a stored movie, prefilled with
// its current rating and review.
func (h *Handler) editExisting(w http.ResponseWriter, r *http.Request, movieID string) {
	id, err := strconv.ParseInt(movieID, 10, 64)
	if err != nil {
		http.Error(w, "Invalid movie_id", http.StatusBadRequest)
		return
	}

	movie, err := h.db.GetMovie(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrMovieNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int64("movie_id", id).Msg("Failed to load movie")
		http.Error(w, "Failed to load movie", http.StatusInternalServerError)
		return
	}

	data := editPageData{Movie: movie, Errors: map[string]string{}}
	if movie.Rating != nil {
		data.Rating = strconv.FormatFloat(*movie.Rating, 'f', -1, 64)
	}
	if movie.Review != nil {
		data.Review = *movie.Review
	}
	renderTemplate(w, r, http.StatusOK, "edit.html.tmpl", data)
}

// EditSubmit applies a rating form submission to the stored movie. The
// rating and review are written atomically; validation failures re-render
// the form without touching the store.
func (h *Handler) EditSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Malformed form data", http.StatusBadRequest)
		return
	}

	id, err := strconv.ParseInt(r.PostFormValue("movie_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid movie_id", http.StatusBadRequest)
		return
	}

	movie, err := h.db.GetMovie(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrMovieNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int64("movie_id", id).Msg("Failed to load movie")
		http.Error(w, "Failed to load movie", http.StatusInternalServerError)
		return
	}

	ratingRaw := strings.TrimSpace(r.PostFormValue("rating"))
	review := strings.TrimSpace(r.PostFormValue("review"))

	rating, err := strconv.ParseFloat(ratingRaw, 64)
	if err != nil {
		renderTemplate(w, r, http.StatusBadRequest, "edit.html.tmpl", editPageData{
			Movie:  movie,
			Rating: ratingRaw,
			Review: review,
			Errors: map[string]string{"Rating": "Rating must be a number between 0 and 10"},
		})
		return
	}

	form := RatingForm{Rating: rating, Review: review}
	if verr := validation.ValidateStruct(&form); verr != nil {
		renderTemplate(w, r, http.StatusBadRequest, "edit.html.tmpl", editPageData{
			Movie:  movie,
			Rating: ratingRaw,
			Review: review,
			Errors: verr.FieldMessages(),
		})
		return
	}

	if err := h.db.UpdateMovieRating(r.Context(), id, form.Rating, form.Review); err != nil {
		if errors.Is(err, database.ErrMovieNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int64("movie_id", id).Msg("Failed to update rating")
		http.Error(w, "Failed to update rating", http.StatusInternalServerError)
		return
	}

	logging.Ctx(r.Context()).Info().Int64("movie_id", id).Float64("rating", form.Rating).Msg("Movie rated")
	http.Redirect(w, r, "/", http.StatusFound)
}

// Delete removes a movie and returns to the list. Unknown ids get a 404
// rather than a silent redirect.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("movie_id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid movie_id", http.StatusBadRequest)
		return
	}

	if err := h.db.DeleteMovie(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrMovieNotFound) {
			http.Error(w, "Movie not found", http.StatusNotFound)
			return
		}
		logging.Ctx(r.Context()).Error().Err(err).Int64("movie_id", id).Msg("Failed to delete movie")
		http.Error(w, "Failed to delete movie", http.StatusInternalServerError)
		return
	}

	logging.Ctx(r.Context()).Info().Int64("movie_id", id).Msg("Movie deleted")
	http.Redirect(w, r, "/", http.StatusFound)
}

// reverse flips the slice in place. The store returns rating ascending;
// the page shows the best movie first.
func reverse(movies []models.Movie) {
	for i, j := 0, len(movies)-1; i < j; i, j = i+1, j-1 {
		movies[i], movies[j] = movies[j], movies[i]
	}
}
