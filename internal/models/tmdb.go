// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package models

import (
	"fmt"
	"strconv"
)

// SearchResponse is the typed schema for TMDB's /search/movie endpoint.
// Only the fields the application consumes are declared; TMDB returns many
// more, which goccy/go-json ignores during decoding.
type SearchResponse struct {
	Page         int            `json:"page"`
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
}

// SearchResult is one entry of a TMDB search response's results list.
type SearchResult struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
}

// MovieDetails is the typed schema for TMDB's /movie/{id} endpoint.
type MovieDetails struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	Overview    string `json:"overview"`
	PosterPath  string `json:"poster_path"`
}

// Validate checks that the fields required to construct a Movie are present.
// TMDB occasionally returns records with empty release dates or titles;
// those fail here with a parse error instead of propagating zero values
// into the store.
func (d *MovieDetails) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("tmdb details for id %d: missing title", d.ID)
	}
	if len(d.ReleaseDate) < 4 {
		return fmt.Errorf("tmdb details for %q: release_date %q too short to derive year", d.Title, d.ReleaseDate)
	}
	return nil
}

// Year derives the release year from the first 4 characters of ReleaseDate.
// Call Validate first; Year returns an error for a non-numeric prefix.
func (d *MovieDetails) Year() (int, error) {
	if len(d.ReleaseDate) < 4 {
		return 0, fmt.Errorf("release_date %q too short", d.ReleaseDate)
	}
	year, err := strconv.Atoi(d.ReleaseDate[:4])
	if err != nil {
		return 0, fmt.Errorf("release_date %q: non-numeric year: %w", d.ReleaseDate, err)
	}
	return year, nil
}
