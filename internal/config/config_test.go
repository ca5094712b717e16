// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a config that passes validation, for mutation in tests.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.TMDB.APIKey = "test-api-key"
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-api-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Expected default port 5000, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/data/reelrank.duckdb" {
		t.Errorf("Unexpected default database path: %s", cfg.Database.Path)
	}
	if cfg.TMDB.BaseURL != "https://api.themoviedb.org/3" {
		t.Errorf("Unexpected default TMDB base URL: %s", cfg.TMDB.BaseURL)
	}
	if cfg.TMDB.ImageBaseURL != "https://image.tmdb.org/t/p/w500" {
		t.Errorf("Unexpected default image base URL: %s", cfg.TMDB.ImageBaseURL)
	}
	if cfg.TMDB.Timeout != 10*time.Second {
		t.Errorf("Unexpected default TMDB timeout: %s", cfg.TMDB.Timeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Unexpected default log level: %s", cfg.Logging.Level)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("DUCKDB_PATH", "/tmp/movies.duckdb")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TMDB_PROXY", "http://proxy.local:3128")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TMDB.APIKey != "env-key" {
		t.Errorf("Expected API key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected port 8080 from env, got %d", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/movies.duckdb" {
		t.Errorf("Expected database path from env, got %q", cfg.Database.Path)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug from env, got %q", cfg.Logging.Level)
	}
	if cfg.TMDB.Proxy != "http://proxy.local:3128" {
		t.Errorf("Expected proxy from env, got %q", cfg.TMDB.Proxy)
	}
}

func TestLoad_MissingAPIKey(t *testing.T) {
	// No TMDB_API_KEY set - validation must reject the config
	_, err := Load()
	if err == nil {
		t.Fatal("Expected error for missing TMDB API key")
	}
	if !strings.Contains(err.Error(), "TMDB_API_KEY") {
		t.Errorf("Expected error to mention TMDB_API_KEY, got: %v", err)
	}
}

func TestLoad_CORSOriginsCommaSeparated(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "test-api-key")
	t.Setenv("CORS_ORIGINS", "http://localhost:5000, http://reelrank.local")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if len(cfg.Security.CORSOrigins) != 2 {
		t.Fatalf("Expected 2 CORS origins, got %v", cfg.Security.CORSOrigins)
	}
	if cfg.Security.CORSOrigins[1] != "http://reelrank.local" {
		t.Errorf("Expected trimmed origin, got %q", cfg.Security.CORSOrigins[1])
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for port 0")
	}

	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for port 70000")
	}
}

func TestValidate_InvalidProxyURL(t *testing.T) {
	cfg := validConfig()
	cfg.TMDB.Proxy = "not a url"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for malformed proxy URL")
	}

	cfg.TMDB.Proxy = "ftp://proxy.local"
	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for non-http proxy scheme")
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for invalid log level")
	}
}

func TestValidate_EmptyDatabasePath(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Path = ""

	if err := cfg.Validate(); err == nil {
		t.Error("Expected error for empty database path")
	}
}

func TestServerConfig_Addr(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 5000}
	if got := cfg.Addr(); got != "127.0.0.1:5000" {
		t.Errorf("Addr() = %q, want 127.0.0.1:5000", got)
	}
}

func TestEnvTransformFunc_UnmappedKeysSkipped(t *testing.T) {
	if got := envTransformFunc("PATH"); got != "" {
		t.Errorf("Expected unmapped env var to be skipped, got %q", got)
	}
	if got := envTransformFunc("TMDB_API_KEY"); got != "tmdb.api_key" {
		t.Errorf("envTransformFunc(TMDB_API_KEY) = %q", got)
	}
}
