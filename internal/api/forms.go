// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package api

import "github.com/reelrank/reelrank/internal/models"

// TitleForm is the /add submission: the title to search TMDB for.
type TitleForm struct {
	Title string `validate:"required,max=250"`
}

// RatingForm is the /edit submission: a rating out of 10 and an optional
// review. The 0-10 scale is advisory; only numeric parsing is enforced,
// matching how ratings have always been stored.
type RatingForm struct {
	Rating float64
	Review string `validate:"max=500"`
}

// indexPageData feeds the index template.
type indexPageData struct {
	Movies []models.Movie
}

// addPageData feeds the add template: the submitted title and any
// per-field validation messages.
type addPageData struct {
	Title  string
	Errors map[string]string
}

// selectPageData feeds the select template.
type selectPageData struct {
	Query      string
	Candidates []models.Candidate
}

// editPageData feeds the edit template. Rating is kept as the raw string
// the user typed so invalid input survives a re-render.
type editPageData struct {
	Movie  *models.Movie
	Rating string
	Review string
	Errors map[string]string
}
