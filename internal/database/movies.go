// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/reelrank/reelrank/internal/metrics"
	"github.com/reelrank/reelrank/internal/models"
)

// movieColumns is the column list used by all movie SELECT statements.
const movieColumns = `id, title, year, description, rating, ranking, review, img_url, created_at, updated_at`

// ListMoviesByRating returns all movies in ascending rating order and
// recomputes their rankings inside the same transaction.
//
// Ordering: rating ASC with NULLS FIRST (unrated movies sort lowest), ties
// broken by id ASC so the ordering is deterministic. The ranking for each
// movie is N - position, giving rank 1 to the highest-rated movie, and is
// written back before commit. Read, recompute, and write-back form one
// transaction; a failure on any row rolls the whole pass back.
func (db *DB) ListMoviesByRating(ctx context.Context) (movies []models.Movie, err error) {
	defer observeQuery("list", time.Now(), &err)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin listing transaction: %w", err)
	}

	movies, err = listMoviesTx(ctx, tx)
	if err != nil {
		rollbackQuietly(tx)
		return nil, err
	}

	// Rank 1 is the lowest rating, rank N the highest (position 0 gets N).
	n := len(movies)
	for i := range movies {
		ranking := n - i
		movies[i].Ranking = &ranking
	}

	for i := range movies {
		if _, err := tx.ExecContext(ctx,
			`UPDATE movies SET ranking = ? WHERE id = ?`,
			*movies[i].Ranking, movies[i].ID,
		); err != nil {
			rollbackQuietly(tx)
			return nil, fmt.Errorf("update ranking for movie %d: %w", movies[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit ranking update: %w", err)
	}

	return movies, nil
}

// listMoviesTx reads all movies in rating order within the given transaction.
func listMoviesTx(ctx context.Context, tx *sql.Tx) ([]models.Movie, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT `+movieColumns+` FROM movies ORDER BY rating ASC NULLS FIRST, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query movies: %w", err)
	}
	defer closeQuietly(rows)

	var movies []models.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movies: %w", err)
	}
	return movies, nil
}

// GetMovie returns the movie with the given id, or ErrMovieNotFound.
func (db *DB) GetMovie(ctx context.Context, id int64) (_ *models.Movie, err error) {
	defer observeQuery("get", time.Now(), &err)

	row := db.conn.QueryRowContext(ctx,
		`SELECT `+movieColumns+` FROM movies WHERE id = ?`, id)

	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &movie, nil
}

// InsertMovie inserts a new movie and assigns its id.
// Returns ErrDuplicateTitle when the title already exists; the existing
// record is left untouched.
func (db *DB) InsertMovie(ctx context.Context, movie *models.Movie) (err error) {
	defer observeQuery("insert", time.Now(), &err)

	err = db.conn.QueryRowContext(ctx,
		`INSERT INTO movies (title, year, description, img_url)
		 VALUES (?, ?, ?, ?)
		 RETURNING id, created_at`,
		movie.Title, movie.Year, movie.Description, movie.ImgURL,
	).Scan(&movie.ID, &movie.CreatedAt)

	if isConstraintViolation(err) {
		return fmt.Errorf("insert movie %q: %w", movie.Title, ErrDuplicateTitle)
	}
	if err != nil {
		return fmt.Errorf("insert movie %q: %w", movie.Title, err)
	}
	return nil
}

// UpdateMovieRating sets the rating and review for an existing movie.
// Both fields are written in a single statement so a failed update never
// commits one without the other. Returns ErrMovieNotFound for unknown ids.
func (db *DB) UpdateMovieRating(ctx context.Context, id int64, rating float64, review string) (err error) {
	defer observeQuery("update_rating", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx,
		`UPDATE movies
		 SET rating = ?, review = ?, updated_at = current_timestamp
		 WHERE id = ?`,
		rating, review, id)
	if err != nil {
		return fmt.Errorf("update movie %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update movie %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// DeleteMovie removes the movie with the given id.
// Returns ErrMovieNotFound when the id does not exist - deletes never
// succeed silently.
func (db *DB) DeleteMovie(ctx context.Context, id int64) (err error) {
	defer observeQuery("delete", time.Now(), &err)

	res, err := db.conn.ExecContext(ctx, `DELETE FROM movies WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete movie %d: rows affected: %w", id, err)
	}
	if affected == 0 {
		return ErrMovieNotFound
	}
	return nil
}

// CountMovies returns the total number of stored movies.
func (db *DB) CountMovies(ctx context.Context) (count int64, err error) {
	defer observeQuery("count", time.Now(), &err)

	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count movies: %w", err)
	}
	return count, nil
}

// observeQuery records the duration and outcome of one store operation.
// Deferred with time.Now() so the duration spans the whole call; err is a
// pointer because the named return is not set until the function returns.
func observeQuery(operation string, start time.Time, err *error) {
	metrics.RecordDBQuery(operation, time.Since(start), *err)
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanMovie.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanMovie scans one movie row, converting nullable columns to pointers.
func scanMovie(row rowScanner) (models.Movie, error) {
	var (
		movie     models.Movie
		rating    sql.NullFloat64
		ranking   sql.NullInt32
		review    sql.NullString
		updatedAt sql.NullTime
	)

	err := row.Scan(
		&movie.ID, &movie.Title, &movie.Year, &movie.Description,
		&rating, &ranking, &review, &movie.ImgURL,
		&movie.CreatedAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return movie, err
	}
	if err != nil {
		return movie, fmt.Errorf("scan movie: %w", err)
	}

	if rating.Valid {
		movie.Rating = &rating.Float64
	}
	if ranking.Valid {
		r := int(ranking.Int32)
		movie.Ranking = &r
	}
	if review.Valid {
		movie.Review = &review.String
	}
	if updatedAt.Valid {
		movie.UpdatedAt = &updatedAt.Time
	}
	return movie, nil
}
