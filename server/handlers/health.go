package handlers

import (
	"net/http"

	"github.com/nomis52/signup/server/types"
)

// HealthResponse is the JSON body of the health check.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Sessions int                    `json:"sessions"`
	Server   types.ServerProperties `json:"server"`
}

// HealthHandler reports that the host is up. It does not contact the backend.
type HealthHandler struct {
	sessions SessionCounter
	props    PropertiesProvider
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(sessions SessionCounter, props PropertiesProvider) *HealthHandler {
	return &HealthHandler{
		sessions: sessions,
		props:    props,
	}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Sessions: h.sessions.Len(),
		Server:   h.props.Properties(),
	})
}
