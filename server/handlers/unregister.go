package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/nomis52/signup/controller"
	"github.com/nomis52/signup/view"
)

// UnregisterPromptHandler asks the user to confirm an unregister request.
type UnregisterPromptHandler struct {
	logger *slog.Logger
	title  string
}

// NewUnregisterPromptHandler creates a new UnregisterPromptHandler.
func NewUnregisterPromptHandler(logger *slog.Logger, title string) *UnregisterPromptHandler {
	return &UnregisterPromptHandler{
		logger: logger,
		title:  title,
	}
}

// ServeHTTP implements http.Handler.
func (h *UnregisterPromptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	activityName := r.URL.Query().Get("activity")
	email := r.URL.Query().Get("email")
	if activityName == "" || email == "" {
		redirectHome(w, r)
		return
	}
	writeHTML(w, r, h.logger, view.ConfirmPage(view.ConfirmData{
		Title:    h.title,
		Prompt:   controller.UnregisterPrompt(email, activityName),
		Activity: activityName,
		Email:    email,
	}))
}

// UnregisterHandler handles the answer to the confirmation prompt.
type UnregisterHandler struct {
	logger   *slog.Logger
	sessions SessionProvider
}

// NewUnregisterHandler creates a new UnregisterHandler.
func NewUnregisterHandler(logger *slog.Logger, sessions SessionProvider) *UnregisterHandler {
	return &UnregisterHandler{
		logger:   logger,
		sessions: sessions,
	}
}

// ServeHTTP implements http.Handler. Only confirm=yes sends the request.
func (h *UnregisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrError(w, r, h.logger, h.sessions)
	if sess == nil {
		return
	}

	activityName := r.PostFormValue("activity")
	email := r.PostFormValue("email")
	answer := r.PostFormValue("confirm")
	confirm := func(context.Context, string) bool { return answer == "yes" }

	if err := sess.Client.SubmitUnregister(r.Context(), email, activityName, confirm); err != nil {
		h.logger.Debug("unregister not completed", "activity", activityName, "error", err)
	}
	sess.Document.MarkFresh()
	redirectHome(w, r)
}
