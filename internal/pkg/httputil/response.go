// Package httputil provides HTTP helpers shared by the console handlers.
package httputil

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/bissquit/mediconnect-console/internal/pkg/ctxlog"
)

// JSON writes v as a JSON body.
func JSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Text writes a plain text response.
func Text(w http.ResponseWriter, statusCode int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write([]byte(text)); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// HTML writes a fully rendered page. Pages are rendered into a buffer
// first so a template error never leaves a half-written 200.
func HTML(w http.ResponseWriter, r *http.Request, statusCode int, page *bytes.Buffer) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := page.WriteTo(w); err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to write page", "error", err)
	}
}

// Redirect sends a 303 so the browser follows with a GET whatever the
// original method was.
func Redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusSeeOther)
}
