// Package controller drives the activity page: it loads the activity list,
// renders it into the host's page, submits signup and unregister requests and
// reloads the list after each successful change.
//
// # Hosts
//
// The controller owns no UI. A host supplies a Page (list, selector, form),
// a Notifier (the status banner) and, per unregister request, a ConfirmFunc.
// The web host backs these with a per-session document; the CLI backs them
// with stdout and stdin.
//
// # Errors
//
// Every failure is shown to the user before it is returned. Callers only use
// the returned error to choose an HTTP status or an exit code.
//
// # Ordering
//
// Loads may overlap when a user acts quickly. Each load takes a sequence
// number when it is dispatched and its result is applied only if no newer
// load has been dispatched since, so an old response never replaces the
// view produced by a newer one.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/signup/activity"
	"github.com/nomis52/signup/apiclient"
	"github.com/nomis52/signup/banner"
	"github.com/nomis52/signup/metrics"
	"github.com/nomis52/signup/view"
)

// User-facing messages.
const (
	MsgLoadFailed       = "Failed to load activities. Please try again later."
	MsgFillAllFields    = "Please fill in all fields"
	MsgSignupFailed     = "Failed to sign up. Please try again."
	MsgUnregisterFailed = "Failed to unregister. Please try again."
)

var (
	// ErrMissingFields is returned when a signup is submitted without an email or activity.
	ErrMissingFields = errors.New("email and activity are required")
	// ErrDeclined is returned when the user declines the unregister confirmation.
	ErrDeclined = errors.New("unregister declined")
)

// API is the signup backend.
type API interface {
	ListActivities(ctx context.Context) (*activity.Collection, error)
	Signup(ctx context.Context, activityName, email string) (string, error)
	Unregister(ctx context.Context, activityName, email string) (string, error)
}

// Page is the part of the host page the controller writes to.
type Page interface {
	// ShowList replaces the list container with the rendered activities.
	ShowList(list view.List)
	// ShowListError replaces the list container with an error message.
	ShowListError(text string)
	// SetOptions replaces the signup selector's choices.
	SetOptions(options []view.Option)
	// ResetForm clears the signup form.
	ResetForm()
}

// Notifier shows a transient status message.
type Notifier interface {
	Show(text string, kind banner.Kind)
}

// ConfirmFunc asks the user a yes/no question and reports whether they agreed.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// UnregisterPrompt is the confirmation question asked before unregistering.
func UnregisterPrompt(email, activityName string) string {
	return fmt.Sprintf("Are you sure you want to unregister %s from %s?", email, activityName)
}

// ActivityClient orchestrates the load, render, mutate and reload cycle.
// It is safe for concurrent use.
type ActivityClient struct {
	api      API
	page     Page
	notifier Notifier
	logger   *slog.Logger
	stale    metrics.Counter

	// dispatched is the sequence number of the most recently started load.
	dispatched atomic.Uint64
	// applyMu serialises writing load results to the page.
	applyMu sync.Mutex
}

// Option configures an ActivityClient.
type Option func(*ActivityClient) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *ActivityClient) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics registers the discarded-load counter with the given registry.
func WithMetrics(registry metrics.Registry) Option {
	return func(c *ActivityClient) error {
		counter, err := registry.NewCounter(prometheus.CounterOpts{
			Name: "client_stale_loads_discarded_total",
			Help: "Activity list responses discarded because a newer load was dispatched.",
		})
		if err != nil {
			return err
		}
		c.stale = counter
		return nil
	}
}

// WithStaleCounter counts discarded loads on an existing counter. Hosts that
// create many clients against one registry share a single counter this way.
func WithStaleCounter(counter metrics.Counter) Option {
	return func(c *ActivityClient) error {
		if counter == nil {
			return errors.New("stale counter must not be nil")
		}
		c.stale = counter
		return nil
	}
}

// New creates an ActivityClient writing to page and notifier.
func New(api API, page Page, notifier Notifier, opts ...Option) (*ActivityClient, error) {
	stale, _ := metrics.NopRegistry{}.NewCounter(prometheus.CounterOpts{})
	c := &ActivityClient{
		api:      api,
		page:     page,
		notifier: notifier,
		logger:   slog.Default(),
		stale:    stale,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("configuring activity client: %w", err)
		}
	}
	return c, nil
}

// LoadActivities fetches the activity list and replaces the rendered list and
// the selector. On failure the list shows MsgLoadFailed and the selector is
// left as it was.
func (c *ActivityClient) LoadActivities(ctx context.Context) error {
	seq := c.dispatched.Add(1)
	activities, err := c.api.ListActivities(ctx)

	c.applyMu.Lock()
	defer c.applyMu.Unlock()

	if seq != c.dispatched.Load() {
		c.stale.Inc()
		c.logger.Debug("discarding superseded activity list", "sequence", seq, "latest", c.dispatched.Load())
		return nil
	}

	if err != nil {
		c.logger.Error("error loading activities", "error", err)
		c.page.ShowListError(MsgLoadFailed)
		return fmt.Errorf("loading activities: %w", err)
	}

	c.page.ShowList(view.Render(activities))
	c.page.SetOptions(view.Options(activities))
	return nil
}

// SubmitSignup signs email up for activityName. Both values must be present.
// On success the form is reset and the list reloaded once.
func (c *ActivityClient) SubmitSignup(ctx context.Context, email, activityName string) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(activityName) == "" {
		c.ShowMessage(MsgFillAllFields, banner.Error)
		return ErrMissingFields
	}

	msg, err := c.api.Signup(ctx, activityName, email)
	if err != nil {
		c.reportFailure("signing up", err, MsgSignupFailed, "activity", activityName, "email", email)
		return err
	}

	c.logger.Info("signed up", "activity", activityName, "email", email)
	c.ShowMessage(msg, banner.Success)
	c.page.ResetForm()
	c.reload(ctx)
	return nil
}

// SubmitUnregister removes email from activityName after confirm agrees.
// A nil confirm is treated as a decline.
func (c *ActivityClient) SubmitUnregister(ctx context.Context, email, activityName string, confirm ConfirmFunc) error {
	if confirm == nil || !confirm(ctx, UnregisterPrompt(email, activityName)) {
		return ErrDeclined
	}

	msg, err := c.api.Unregister(ctx, activityName, email)
	if err != nil {
		c.reportFailure("unregistering", err, MsgUnregisterFailed, "activity", activityName, "email", email)
		return err
	}

	c.logger.Info("unregistered", "activity", activityName, "email", email)
	c.ShowMessage(msg, banner.Success)
	c.reload(ctx)
	return nil
}

// ShowMessage shows text in the status banner.
func (c *ActivityClient) ShowMessage(text string, kind banner.Kind) {
	c.notifier.Show(text, kind)
}

// reload refreshes the list after a successful change. A failed reload is
// already visible in the list, so it does not fail the change itself.
func (c *ActivityClient) reload(ctx context.Context) {
	_ = c.LoadActivities(ctx)
}

// reportFailure shows the backend's detail verbatim when there is one and the
// generic message otherwise.
func (c *ActivityClient) reportFailure(action string, err error, generic string, attrs ...any) {
	if detail, ok := apiclient.DetailOf(err); ok {
		c.logger.Warn("backend refused request", append([]any{"action", action, "detail", detail}, attrs...)...)
		c.ShowMessage(detail, banner.Error)
		return
	}
	c.logger.Error("error "+action, append([]any{"error", err}, attrs...)...)
	c.ShowMessage(generic, banner.Error)
}
