// Package apitest runs an in-memory signup backend for tests.
//
// The backend speaks the same contract as the production service: 404 with
// "Activity not found" for unknown activities, 400 for duplicate signups and
// for unregistering someone who is not registered. Tests can inspect every
// request it received and queue canned failures.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"

	"github.com/nomis52/signup/activity"
)

// Request is a request received by the backend.
type Request struct {
	Method string
	Path   string
	Email  string
}

// Response is a canned reply returned instead of normal handling.
type Response struct {
	Status int
	Body   string
}

// Backend is an in-memory signup backend served over HTTP.
type Backend struct {
	server *httptest.Server

	mu         sync.Mutex
	activities *activity.Collection
	requests   []Request
	queued     []Response
}

// NewBackend starts a backend seeded with activities and stops it when the test ends.
func NewBackend(t testing.TB, activities ...activity.Activity) *Backend {
	t.Helper()

	b := &Backend{activities: activity.NewCollection(activities...)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /activities", b.handleList)
	mux.HandleFunc("POST /activities/{name}/signup", b.handleSignup)
	mux.HandleFunc("DELETE /activities/{name}/unregister", b.handleUnregister)

	b.server = httptest.NewServer(b.intercept(mux))
	t.Cleanup(b.server.Close)
	return b
}

// SeedActivities returns the three activities the backend ships with.
func SeedActivities() []activity.Activity {
	return []activity.Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Programming Class",
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{},
		},
	}
}

// URL returns the base URL of the backend.
func (b *Backend) URL() string {
	return b.server.URL
}

// Requests returns a copy of every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.requests)
}

// Count returns how many received requests matched method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// Reset forgets the recorded requests.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

// Queue makes the next requests return the given responses, in order,
// instead of being handled.
func (b *Backend) Queue(responses ...Response) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queued = append(b.queued, responses...)
}

// Participants returns the current participants of an activity.
func (b *Backend) Participants(name string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, _ := b.activities.Get(name)
	return slices.Clone(a.Participants)
}

func (b *Backend) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Email:  r.URL.Query().Get("email"),
		})
		var canned *Response
		if len(b.queued) > 0 {
			canned = &b.queued[0]
			b.queued = b.queued[1:]
		}
		b.mu.Unlock()

		if canned != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(canned.Status)
			_, _ = w.Write([]byte(canned.Body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	body, err := json.Marshal(b.activities)
	b.mu.Unlock()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": err.Error()})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (b *Backend) handleSignup(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	email := r.URL.Query().Get("email")

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.activities.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Activity not found"})
		return
	}
	if slices.Contains(a.Participants, email) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Student is already registered for this activity"})
		return
	}
	if len(a.Participants) >= a.MaxParticipants {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Activity is full"})
		return
	}
	a.Participants = append(slices.Clone(a.Participants), email)
	b.activities.Put(a)
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Signed up %s for %s", email, name)})
}

func (b *Backend) handleUnregister(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	email := r.URL.Query().Get("email")

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.activities.Get(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Activity not found"})
		return
	}
	idx := slices.Index(a.Participants, email)
	if idx < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Student is not registered for this activity"})
		return
	}
	a.Participants = slices.Delete(slices.Clone(a.Participants), idx, idx+1)
	b.activities.Put(a)
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("Unregistered %s from %s", email, name)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
