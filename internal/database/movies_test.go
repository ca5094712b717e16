// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/reelrank/reelrank/internal/config"
	"github.com/reelrank/reelrank/internal/metrics"
	"github.com/reelrank/reelrank/internal/models"
)

// newTestDB creates a store backed by a throwaway DuckDB file.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Path:      filepath.Join(t.TempDir(), "test.duckdb"),
		MaxMemory: "256MB",
		Threads:   1,
	}

	db, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return db
}

// insertTestMovie inserts a movie and optionally rates it.
func insertTestMovie(t *testing.T, db *DB, title string, rating *float64) *models.Movie {
	t.Helper()

	ctx := context.Background()
	movie := &models.Movie{
		Title:       title,
		Year:        2000,
		Description: "test description",
		ImgURL:      "https://image.tmdb.org/t/p/w500/test.jpg",
	}
	if err := db.InsertMovie(ctx, movie); err != nil {
		t.Fatalf("InsertMovie(%q) failed: %v", title, err)
	}
	if rating != nil {
		if err := db.UpdateMovieRating(ctx, movie.ID, *rating, "review of "+title); err != nil {
			t.Fatalf("UpdateMovieRating(%q) failed: %v", title, err)
		}
	}
	return movie
}

func ratingPtr(v float64) *float64 { return &v }

func TestInsertMovie_AssignsID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	movie := insertTestMovie(t, db, "Dune", nil)
	if movie.ID == 0 {
		t.Error("Expected InsertMovie to assign a nonzero id")
	}
	if movie.CreatedAt.IsZero() {
		t.Error("Expected InsertMovie to populate created_at")
	}

	got, err := db.GetMovie(ctx, movie.ID)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if got.Title != "Dune" {
		t.Errorf("Expected title Dune, got %q", got.Title)
	}
	if got.Rating != nil {
		t.Error("Expected new movie to have no rating")
	}
	if got.Ranking != nil {
		t.Error("Expected new movie to have no ranking")
	}
}

func TestInsertMovie_DuplicateTitle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	original := insertTestMovie(t, db, "Dune", ratingPtr(9.0))

	dup := &models.Movie{
		Title:       "Dune",
		Year:        2021,
		Description: "remake",
		ImgURL:      "https://image.tmdb.org/t/p/w500/other.jpg",
	}
	err := db.InsertMovie(ctx, dup)
	if !errors.Is(err, ErrDuplicateTitle) {
		t.Fatalf("Expected ErrDuplicateTitle, got %v", err)
	}

	// The existing record must be unchanged by the failed insert.
	got, err := db.GetMovie(ctx, original.ID)
	if err != nil {
		t.Fatalf("GetMovie after duplicate insert failed: %v", err)
	}
	if got.Year != 2000 {
		t.Errorf("Expected existing record year 2000, got %d", got.Year)
	}
	if got.Rating == nil || *got.Rating != 9.0 {
		t.Errorf("Expected existing record rating 9.0, got %v", got.Rating)
	}
}

func TestGetMovie_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetMovie(context.Background(), 9999)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("Expected ErrMovieNotFound, got %v", err)
	}
}

func TestListMoviesByRating_RankingPermutation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	insertTestMovie(t, db, "Low", ratingPtr(3.5))
	insertTestMovie(t, db, "High", ratingPtr(9.5))
	insertTestMovie(t, db, "Mid", ratingPtr(7.0))

	movies, err := db.ListMoviesByRating(ctx)
	if err != nil {
		t.Fatalf("ListMoviesByRating failed: %v", err)
	}
	if len(movies) != 3 {
		t.Fatalf("Expected 3 movies, got %d", len(movies))
	}

	// Ascending rating order: Low, Mid, High
	wantOrder := []string{"Low", "Mid", "High"}
	wantRank := []int{3, 2, 1}
	for i, movie := range movies {
		if movie.Title != wantOrder[i] {
			t.Errorf("Position %d: expected %q, got %q", i, wantOrder[i], movie.Title)
		}
		if movie.Ranking == nil || *movie.Ranking != wantRank[i] {
			t.Errorf("Position %d: expected ranking %d, got %v", i, wantRank[i], movie.Ranking)
		}
	}

	// Rankings must be persisted, not just computed in memory.
	got, err := db.GetMovie(ctx, movies[2].ID)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if got.Ranking == nil || *got.Ranking != 1 {
		t.Errorf("Expected persisted ranking 1 for highest-rated, got %v", got.Ranking)
	}
}

func TestListMoviesByRating_TieBrokenByID(t *testing.T) {
	db := newTestDB(t)

	first := insertTestMovie(t, db, "First", ratingPtr(7.0))
	second := insertTestMovie(t, db, "Second", ratingPtr(7.0))

	movies, err := db.ListMoviesByRating(context.Background())
	if err != nil {
		t.Fatalf("ListMoviesByRating failed: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("Expected 2 movies, got %d", len(movies))
	}

	// Equal ratings: lower id sorts first and gets the lower rank value's
	// complement (rank 2), keeping the ordering deterministic across runs.
	if movies[0].ID != first.ID || movies[1].ID != second.ID {
		t.Errorf("Expected tie broken by id ascending, got order %d, %d", movies[0].ID, movies[1].ID)
	}
}

func TestListMoviesByRating_UnratedSortFirst(t *testing.T) {
	db := newTestDB(t)

	insertTestMovie(t, db, "Rated", ratingPtr(5.0))
	insertTestMovie(t, db, "Unrated", nil)

	movies, err := db.ListMoviesByRating(context.Background())
	if err != nil {
		t.Fatalf("ListMoviesByRating failed: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("Expected 2 movies, got %d", len(movies))
	}
	if movies[0].Title != "Unrated" {
		t.Errorf("Expected unrated movie to sort first, got %q", movies[0].Title)
	}
	if movies[0].Ranking == nil || *movies[0].Ranking != 2 {
		t.Errorf("Expected unrated movie ranking 2, got %v", movies[0].Ranking)
	}
}

func TestListMoviesByRating_Empty(t *testing.T) {
	db := newTestDB(t)

	movies, err := db.ListMoviesByRating(context.Background())
	if err != nil {
		t.Fatalf("ListMoviesByRating on empty store failed: %v", err)
	}
	if len(movies) != 0 {
		t.Errorf("Expected empty list, got %d movies", len(movies))
	}
}

func TestUpdateMovieRating(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	movie := insertTestMovie(t, db, "Dune", nil)

	if err := db.UpdateMovieRating(ctx, movie.ID, 8.5, "Great movie"); err != nil {
		t.Fatalf("UpdateMovieRating failed: %v", err)
	}

	got, err := db.GetMovie(ctx, movie.ID)
	if err != nil {
		t.Fatalf("GetMovie failed: %v", err)
	}
	if got.Rating == nil || *got.Rating != 8.5 {
		t.Errorf("Expected rating 8.5, got %v", got.Rating)
	}
	if got.Review == nil || *got.Review != "Great movie" {
		t.Errorf("Expected review to be set, got %v", got.Review)
	}
	if got.UpdatedAt == nil {
		t.Error("Expected updated_at to be set after rating update")
	}
}

func TestUpdateMovieRating_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateMovieRating(context.Background(), 9999, 5.0, "no such movie")
	if !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("Expected ErrMovieNotFound, got %v", err)
	}
}

func TestDeleteMovie(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	movie := insertTestMovie(t, db, "Dune", nil)

	if err := db.DeleteMovie(ctx, movie.ID); err != nil {
		t.Fatalf("DeleteMovie failed: %v", err)
	}

	_, err := db.GetMovie(ctx, movie.ID)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("Expected ErrMovieNotFound after delete, got %v", err)
	}
}

func TestDeleteMovie_NotFound(t *testing.T) {
	db := newTestDB(t)

	// Deleting an unknown id must fail loudly, never silently succeed.
	err := db.DeleteMovie(context.Background(), 9999)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Errorf("Expected ErrMovieNotFound, got %v", err)
	}
}

func TestCountMovies(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	count, err := db.CountMovies(ctx)
	if err != nil {
		t.Fatalf("CountMovies failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 movies, got %d", count)
	}

	insertTestMovie(t, db, "One", nil)
	insertTestMovie(t, db, "Two", nil)

	count, err = db.CountMovies(ctx)
	if err != nil {
		t.Fatalf("CountMovies failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 movies, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)

	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestQueriesRecordMetrics(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	errsBefore := testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues("get"))

	insertTestMovie(t, db, "Observed", nil)
	if _, err := db.GetMovie(ctx, 99999); !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("Expected ErrMovieNotFound, got %v", err)
	}

	errsAfter := testutil.ToFloat64(metrics.DBQueryErrors.WithLabelValues("get"))
	if errsAfter != errsBefore+1 {
		t.Errorf("Expected get error count to rise by 1, got %v -> %v", errsBefore, errsAfter)
	}
	if testutil.CollectAndCount(metrics.DBQueryDuration) == 0 {
		t.Error("Expected query durations to be observed")
	}
}
