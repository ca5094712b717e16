// Reelrank - Personal Movie Ranking
// Copyright 2026 Reelrank Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reelrank/reelrank

package api

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/reelrank/reelrank/internal/logging"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// templates holds all parsed page templates, keyed by file name.
// Parsing happens at startup; a malformed template is a build defect and
// panics before the server binds its port.
var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// renderTemplate writes an HTML page. The status is committed before
// execution, so a mid-render failure can only be logged, not turned into
// an error response.
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)

	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("Failed to render template")
	}
}
