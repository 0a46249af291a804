package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nomis52/signup/controller"
)

// SignupHandler handles the signup form post.
type SignupHandler struct {
	logger   *slog.Logger
	sessions SessionProvider
}

// NewSignupHandler creates a new SignupHandler.
func NewSignupHandler(logger *slog.Logger, sessions SessionProvider) *SignupHandler {
	return &SignupHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// ServeHTTP implements http.Handler. The outcome is left in the session's
// banner and the browser is redirected back to the page.
func (h *SignupHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrError(w, r, h.logger, h.sessions)
	if sess == nil {
		return
	}

	email := r.PostFormValue("email")
	activityName := r.PostFormValue("activity")
	// Keep what was typed so a failed signup can be retried.
	sess.Document.SetForm(email, activityName)

	if err := sess.Client.SubmitSignup(r.Context(), email, activityName); err != nil && !errors.Is(err, controller.ErrMissingFields) {
		h.logger.Debug("signup failed", "activity", activityName, "error", err)
	}
	sess.Document.MarkFresh()
	redirectHome(w, r)
}
