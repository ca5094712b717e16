// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

// Package models defines the data structures shared between the database,
// TMDB client, and API layers.
package models

import "time"

// Movie is the single persisted entity representing one ranked film.
//
// Rating, Ranking, and Review are nullable: a movie is created from TMDB
// metadata without a rating, and ranked only after the user rates it.
// Ranking is not a stored source of truth - it is recomputed from rating
// order on every list view and written back.
type Movie struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Year        int        `json:"year"`
	Description string     `json:"description"`
	Rating      *float64   `json:"rating"`
	Ranking     *int       `json:"ranking"`
	Review      *string    `json:"review"`
	ImgURL      string     `json:"img_url"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// HasRating reports whether the user has rated this movie yet.
func (m *Movie) HasRating() bool {
	return m.Rating != nil
}

// Candidate is a TMDB search result presented to the user before a Movie
// record is committed. Candidates are shown in the order TMDB returns them.
type Candidate struct {
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	TMDBID      int64  `json:"tmdb_id"`
}
