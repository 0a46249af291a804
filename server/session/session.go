// Package session keeps the page state of each browser that opens the web host.
//
// A browser is identified by a cookie holding a random id. Each id maps to a
// Session owning the page document, the status banner and the activity client
// that writes to both, so two browsers never see each other's form or messages.
// Sessions idle for longer than the TTL are dropped on the next lookup.
package session

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nomis52/signup/banner"
	"github.com/nomis52/signup/controller"
	"github.com/nomis52/signup/page"
)

// CookieName is the cookie carrying the session id.
const CookieName = "signup_session"

// ClientFactory builds the activity client for a new session.
type ClientFactory func(page controller.Page, notifier controller.Notifier) (*controller.ActivityClient, error)

// Session is the state of one browser.
type Session struct {
	ID       string
	Document *page.Document
	Banner   *banner.Banner
	Client   *controller.ActivityClient

	lastSeen time.Time
}

// Store maps session ids to sessions. It is safe for concurrent use.
type Store struct {
	ttl             time.Duration
	messageDuration time.Duration
	factory         ClientFactory
	now             func() time.Time
	onChange        func(active int)

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Store.
type Option func(*Store)

// WithMessageDuration sets how long each session's banner messages stay visible.
func WithMessageDuration(d time.Duration) Option {
	return func(s *Store) {
		s.messageDuration = d
	}
}

// WithNow replaces the clock used for expiry.
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithActiveHook registers a function called with the session count whenever it changes.
func WithActiveHook(f func(active int)) Option {
	return func(s *Store) {
		s.onChange = f
	}
}

// NewStore creates a store whose sessions expire after ttl of inactivity.
func NewStore(ttl time.Duration, factory ClientFactory, opts ...Option) *Store {
	s := &Store{
		ttl:             ttl,
		messageDuration: banner.DefaultDuration,
		factory:         factory,
		now:             time.Now,
		onChange:        func(int) {},
		sessions:        make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session named by the request's cookie, creating one and
// setting the cookie on w when there is none or it has expired.
func (s *Store) Get(w http.ResponseWriter, r *http.Request) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	before := len(s.sessions)
	s.expire(now)

	if cookie, err := r.Cookie(CookieName); err == nil {
		if sess, ok := s.sessions[cookie.Value]; ok {
			sess.lastSeen = now
			s.notify(before)
			return sess, nil
		}
	}

	sess, err := s.create(now)
	if err != nil {
		s.notify(before)
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sess.ID,
		Path:     "/",
		MaxAge:   int(s.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	s.notify(before)
	return sess, nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) create(now time.Time) (*Session, error) {
	doc := page.New()
	b := banner.New(banner.WithDuration(s.messageDuration))
	client, err := s.factory(doc, b)
	if err != nil {
		return nil, fmt.Errorf("creating activity client: %w", err)
	}
	sess := &Session{
		ID:       uuid.NewString(),
		Document: doc,
		Banner:   b,
		Client:   client,
		lastSeen: now,
	}
	s.sessions[sess.ID] = sess
	return sess, nil
}

// expire must be called with mu held.
func (s *Store) expire(now time.Time) {
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.ttl {
			delete(s.sessions, id)
		}
	}
}

// notify must be called with mu held.
func (s *Store) notify(before int) {
	if len(s.sessions) != before {
		s.onChange(len(s.sessions))
	}
}
