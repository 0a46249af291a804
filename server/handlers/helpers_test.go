package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nomis52/signup/apiclient"
	"github.com/nomis52/signup/apitest"
	"github.com/nomis52/signup/controller"
	"github.com/nomis52/signup/logging"
	"github.com/nomis52/signup/server/session"
)

type harness struct {
	backend  *apitest.Backend
	sessions *session.Store
	cookie   *http.Cookie
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := apitest.NewBackend(t, apitest.SeedActivities()...)
	api, err := apiclient.New(backend.URL(), apiclient.WithLogger(logging.Discard()))
	require.NoError(t, err)

	store := session.NewStore(time.Minute, func(p controller.Page, n controller.Notifier) (*controller.ActivityClient, error) {
		return controller.New(api, p, n, controller.WithLogger(logging.Discard()))
	})
	return &harness{backend: backend, sessions: store}
}

// do serves req and keeps the session cookie for the next request, like a browser.
func (h *harness) do(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			h.cookie = c
		}
	}
	return w
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}
