// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package database

import (
	"database/sql"
	"errors"
	"io"
	"strings"

	"github.com/reelrank/reelrank/internal/logging"
)

// Sentinel errors returned by the movie store. Handlers match these with
// errors.Is to map storage failures to HTTP responses.
var (
	// ErrMovieNotFound indicates the requested movie id does not exist.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrDuplicateTitle indicates an insert violated the unique title constraint.
	ErrDuplicateTitle = errors.New("a movie with this title already exists")
)

// isConstraintViolation reports whether err is a DuckDB unique/primary key
// constraint error. The duckdb driver does not expose typed constraint
// errors, so this matches the engine's stable error text.
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "Constraint Error")
}

// closeQuietly closes a resource and explicitly ignores any error
// Use this for cleanup operations in error paths where Close() errors are not actionable
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}

// rollbackQuietly rolls back a transaction, logging any rollback failure.
// Used in error paths where the original error is the one worth returning.
func rollbackQuietly(tx interface{ Rollback() error }) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logging.Warn().Err(err).Msg("Failed to roll back transaction")
	}
}
