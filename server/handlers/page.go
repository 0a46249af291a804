package handlers

import (
	"log/slog"
	"net/http"

	"github.com/nomis52/signup/view"
)

// PageHandler serves the activity page. A page load fetches the list from the
// backend, as a browser does. The redirect that follows a form post renders the
// document as the action left it, since the action already reloaded it when needed.
type PageHandler struct {
	logger   *slog.Logger
	sessions SessionProvider
	title    string
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(logger *slog.Logger, sessions SessionProvider, title string) *PageHandler {
	return &PageHandler{
		logger:   logger,
		sessions: sessions,
		title:    title,
	}
}

// ServeHTTP implements http.Handler.
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess := sessionOrError(w, r, h.logger, h.sessions)
	if sess == nil {
		return
	}

	if !sess.Document.ConsumeFresh() {
		// A failed load is rendered into the list container.
		_ = sess.Client.LoadActivities(r.Context())
	}

	snap := sess.Document.Snapshot()
	data := view.PageData{
		Title:     h.title,
		List:      snap.List,
		ListError: snap.ListError,
		Options:   snap.Options,
		Email:     snap.Email,
		Selected:  snap.Selected,
	}
	if msg, ok := sess.Banner.Current(); ok {
		data.Message = view.Message{
			Visible:   true,
			Text:      msg.Text,
			Kind:      string(msg.Kind),
			RemainsMS: msg.Remaining.Milliseconds(),
		}
	}
	writeHTML(w, r, h.logger, view.Page(data))
}
