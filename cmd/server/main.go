// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

// Package main is the entry point for the Reelrank server.
//
// Reelrank is a self-hosted web application for keeping a personal ranked
// list of movies. Movies are added by title, matched against The Movie
// Database (TMDB) for metadata, rated and reviewed by the user, and shown
// as a ranked list that is recomputed from the ratings on every view.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: Load settings from environment variables and config files (Koanf v2)
//  2. Logging: Structured zerolog output per LOG_LEVEL / LOG_FORMAT
//  3. Database: Open the embedded DuckDB movie store and create the schema
//  4. TMDB Client: Rate-limited, circuit-broken metadata client
//  5. HTTP Server: Chi router with the HTML pages, JSON API, and /metrics
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file (config.yaml),
// built-in defaults. TMDB_API_KEY is the only required setting.
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Waits for in-flight requests to complete (10s timeout)
//   - Checkpoints and closes the DuckDB store
//
// # Example Usage
//
//	export TMDB_API_KEY=your-tmdb-api-key
//	export DUCKDB_PATH=./reelrank.duckdb
//	./reelrank
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/reelrank/reelrank/internal/api"
	"github.com/reelrank/reelrank/internal/config"
	"github.com/reelrank/reelrank/internal/database"
	"github.com/reelrank/reelrank/internal/logging"
	"github.com/reelrank/reelrank/internal/tmdb"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("database", cfg.Database.Path).
		Msg("Starting Reelrank")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open movie store")
	}

	tmdbClient, err := tmdb.NewClient(&cfg.TMDB)
	if err != nil {
		closeStore(db)
		logging.Fatal().Err(err).Msg("Failed to create TMDB client")
	}

	router := api.NewRouter(cfg, api.NewHandler(db, tmdbClient))

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		serverErr <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			closeStore(db)
			logging.Fatal().Err(err).Msg("HTTP server failed")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown incomplete, forcing close")
		_ = server.Close()
	}

	closeStore(db)
	logging.Info().Msg("Shutdown complete")
}

// closeStore checkpoints and closes the movie store.
func closeStore(db *database.DB) {
	if err := db.Close(); err != nil {
		logging.Error().Err(err).Msg("Failed to close movie store")
	}
}
