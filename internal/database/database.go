// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

// Package database provides the DuckDB-backed movie store.
//
// The store holds a single table, movies, with a uniqueness constraint on
// title. All access goes through *DB methods; the listing operation bundles
// the read, the ranking recompute, and the write-back into one transaction.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/reelrank/reelrank/internal/config"
	"github.com/reelrank/reelrank/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New creates a new database connection and initializes the schema
func New(cfg *config.DatabaseConfig) (*DB, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure parent directory exists for database file
	// Use 0750 permissions (owner: rwx, group: rx, other: none) per gosec G301
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
		}
	}

	// Disable auto-install/auto-load to prevent hangs in restricted network
	// environments; no extensions are needed for the movies table.
	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{
		conn: conn,
		cfg:  cfg,
	}

	db.configureConnectionPool()

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Movie store initialized")
	return db, nil
}

// configureConnectionPool caps the pool for embedded single-writer use.
// Each HTTP request runs exactly one transaction; a single connection keeps
// DuckDB's optimistic write conflicts out of the picture.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(1)
	db.conn.SetMaxIdleConns(1)
	db.conn.SetConnMaxLifetime(time.Hour)
}

// Conn returns the underlying SQL database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping checks if the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
// It performs a CHECKPOINT before closing to flush the WAL to the main
// database file, which keeps the next startup from replaying a stale WAL.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		// Best effort - log and continue closing
		logging.Warn().Err(err).Msg("Failed to checkpoint database before close")
	}

	return db.conn.Close()
}

// createTables creates the movies table and its supporting sequence.
// All columns are defined in the initial CREATE TABLE statement; there is a
// single table and no versioned migration machinery.
func (db *DB) createTables() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS movies_id_seq START 1`,
		`CREATE TABLE IF NOT EXISTS movies (
			id BIGINT PRIMARY KEY DEFAULT nextval('movies_id_seq'),
			title VARCHAR NOT NULL UNIQUE,
			year INTEGER NOT NULL,
			description VARCHAR NOT NULL,
			rating DOUBLE,
			ranking INTEGER,
			review VARCHAR,
			img_url VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp,
			updated_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_movies_rating ON movies(rating)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}
