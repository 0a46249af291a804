package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"

	"github.com/nomis52/signup/server/session"
)

// ErrorResponse is returned when an error occurs.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// writeHTML renders c fully before writing so a failed render becomes a 500.
func writeHTML(w http.ResponseWriter, r *http.Request, logger *slog.Logger, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		logger.Error("failed to render page", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to render page"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.Debug("failed to write page", "path", r.URL.Path, "error", err)
	}
}

// sessionOrError writes a 500 and returns nil when the session cannot be resolved.
func sessionOrError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, sessions SessionProvider) *session.Session {
	sess, err := sessions.Get(w, r)
	if err != nil {
		logger.Error("failed to resolve session", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "failed to start session"})
		return nil
	}
	return sess
}

// redirectHome sends the browser back to the page after a form post.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
