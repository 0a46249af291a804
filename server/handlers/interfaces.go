// Package handlers provides HTTP handlers for the signup web host.
//
// Each handler is in its own file and implements http.Handler.
// Handlers use interfaces to access server dependencies, avoiding
// circular imports.
package handlers

import (
	"net/http"

	"github.com/nomis52/signup/server/session"
	"github.com/nomis52/signup/server/types"
)

// SessionProvider resolves the browser session for a request.
type SessionProvider interface {
	Get(w http.ResponseWriter, r *http.Request) (*session.Session, error)
}

// SessionCounter reports how many sessions are live.
type SessionCounter interface {
	Len() int
}

// PropertiesProvider describes the running server.
type PropertiesProvider interface {
	Properties() types.ServerProperties
}
