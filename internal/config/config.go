// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

// Package config provides centralized configuration for all application
// components: the HTTP server, the DuckDB movie store, the TMDB metadata
// client, logging, and security settings.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access from
// multiple goroutines. It is constructed once in main() and injected into the
// store, the TMDB client, and the router; no component reads configuration
// from package globals.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration loaded from environment
// variables and config files.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - HTTP_HOST: Listen address (default: 0.0.0.0)
//   - HTTP_PORT: Listen port (default: 5000)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds DuckDB settings for the movie store.
//
// Environment Variables:
//   - DUCKDB_PATH: Database file path (default: /data/reelrank.duckdb)
//   - DUCKDB_MAX_MEMORY: DuckDB memory limit (default: 512MB)
//   - DUCKDB_THREADS: Worker threads, 0 = runtime.NumCPU() (default: 0)
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// TMDBConfig holds settings for The Movie Database client.
//
// Environment Variables:
//   - TMDB_API_KEY: API key from https://www.themoviedb.org/settings/api (required)
//   - TMDB_BASE_URL: API base URL (default: https://api.themoviedb.org/3)
//   - TMDB_IMAGE_BASE_URL: Poster base URL (default: https://image.tmdb.org/t/p/w500)
//   - TMDB_PROXY: Optional outbound HTTP proxy URL
//   - TMDB_TIMEOUT: Per-request timeout (default: 10s)
type TMDBConfig struct {
	APIKey       string        `koanf:"api_key"`
	BaseURL      string        `koanf:"base_url"`
	ImageBaseURL string        `koanf:"image_base_url"`
	Proxy        string        `koanf:"proxy"`
	Timeout      time.Duration `koanf:"timeout"`
}

// SecurityConfig holds rate limiting and CORS settings.
//
// Environment Variables:
//   - RATE_LIMIT_REQUESTS: Requests per window (default: 100)
//   - RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
//   - DISABLE_RATE_LIMIT: Disable rate limiting entirely (default: false)
//   - CORS_ORIGINS: Comma-separated allowed origins for the JSON API (default: *)
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log output settings.
//
// Environment Variables:
//   - LOG_LEVEL: debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: include caller file/line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Addr returns the listen address in host:port form.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks the configuration for missing or malformed values.
// It fails fast at startup rather than deferring errors to the first request.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	return c.validateLogging()
}

// validateServer validates HTTP server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d: must be between 1 and 65535", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("invalid server timeout %s: must be positive", c.Server.Timeout)
	}
	return nil
}

// validateDatabase validates DuckDB configuration
func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path is required (set DUCKDB_PATH)")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("invalid database threads %d: must be >= 0", c.Database.Threads)
	}
	return nil
}

// validateTMDB validates the TMDB client configuration
func (c *Config) validateTMDB() error {
	if c.TMDB.APIKey == "" {
		return fmt.Errorf("TMDB API key is required (set TMDB_API_KEY)")
	}
	if err := validateURL(c.TMDB.BaseURL, "tmdb.base_url"); err != nil {
		return err
	}
	if err := validateURL(c.TMDB.ImageBaseURL, "tmdb.image_base_url"); err != nil {
		return err
	}
	if c.TMDB.Proxy != "" {
		if err := validateURL(c.TMDB.Proxy, "tmdb.proxy"); err != nil {
			return err
		}
	}
	if c.TMDB.Timeout <= 0 {
		return fmt.Errorf("invalid tmdb timeout %s: must be positive", c.TMDB.Timeout)
	}
	return nil
}

// validateLogging validates log level and format values
func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("invalid log level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q: must be json or console", c.Logging.Format)
	}
	return nil
}

// validateURL checks that a value parses as an absolute http(s) URL.
func validateURL(raw, field string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", field, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid %s %q: scheme must be http or https", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid %s %q: missing host", field, raw)
	}
	return nil
}
