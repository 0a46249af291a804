// Package apiclient provides a client for the activity signup backend's HTTP API.
//
// Example usage:
//
//	client, err := apiclient.New("http://localhost:8000", apiclient.WithTimeout(10*time.Second))
//	activities, err := client.ListActivities(ctx)
//	msg, err := client.Signup(ctx, "Chess Club", "student@mergington.edu")
//
// Failures are returned as *TransportError, *APIError or *DecodeError so
// callers can tell a dead network from a refusal by the backend.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nomis52/signup/activity"
	"github.com/nomis52/signup/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	// maxBodyBytes caps how much of a response body is read.
	maxBodyBytes = 1 << 20
)

// Request outcomes used as the "outcome" metric label.
const (
	outcomeOK             = "ok"
	outcomeAPIError       = "api_error"
	outcomeDecodeError    = "decode_error"
	outcomeTransportError = "transport_error"
)

// Client talks to the signup backend. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	requests   metrics.CounterVec
}

// Option configures a Client.
type Option func(*Client) error

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithTimeout sets the timeout for each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.httpClient = &http.Client{Timeout: d}
		return nil
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics registers the request counter with the given registry.
func WithMetrics(registry metrics.Registry) Option {
	return func(c *Client) error {
		vec, err := registry.NewCounterVec(prometheus.CounterOpts{
			Name: "client_requests_total",
			Help: "Requests issued to the signup backend by operation and outcome.",
		}, []string{"operation", "outcome"})
		if err != nil {
			return err
		}
		c.requests = vec
		return nil
	}
}

// New creates a new Client for the backend at baseURL,
// which should include the scheme (e.g., "http://localhost:8000").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base URL %q must be an absolute http or https URL", baseURL)
	}

	requests, _ := metrics.NopRegistry{}.NewCounterVec(prometheus.CounterOpts{}, nil)
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
		requests:   requests,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("configuring api client: %w", err)
		}
	}
	return c, nil
}

// ListActivities fetches the activity collection with GET /activities.
func (c *Client) ListActivities(ctx context.Context) (*activity.Collection, error) {
	body, err := c.do(ctx, OpList, http.MethodGet, c.baseURL+"/activities")
	if err != nil {
		return nil, err
	}

	var activities activity.Collection
	if err := json.Unmarshal(body, &activities); err != nil {
		c.record(OpList, outcomeDecodeError)
		return nil, &DecodeError{Op: OpList, Err: err}
	}
	c.record(OpList, outcomeOK)
	return &activities, nil
}

// Signup adds email to the named activity with
// POST /activities/{name}/signup?email={email} and returns the backend's message.
func (c *Client) Signup(ctx context.Context, activityName, email string) (string, error) {
	return c.mutate(ctx, OpSignup, http.MethodPost, c.actionURL(activityName, "signup", email))
}

// Unregister removes email from the named activity with
// DELETE /activities/{name}/unregister?email={email} and returns the backend's message.
func (c *Client) Unregister(ctx context.Context, activityName, email string) (string, error) {
	return c.mutate(ctx, OpUnregister, http.MethodDelete, c.actionURL(activityName, "unregister", email))
}

func (c *Client) actionURL(activityName, action, email string) string {
	return fmt.Sprintf("%s/activities/%s/%s?email=%s",
		c.baseURL, EscapeComponent(activityName), action, EscapeComponent(email))
}

func (c *Client) mutate(ctx context.Context, op, method, target string) (string, error) {
	body, err := c.do(ctx, op, method, target)
	if err != nil {
		return "", err
	}

	var resp messageResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.record(op, outcomeDecodeError)
		return "", &DecodeError{Op: op, Err: err}
	}
	c.record(op, outcomeOK)
	return resp.Message, nil
}

// do sends the request and returns the body of a 2xx response. Transport and
// API failures are recorded here; decoding of the success body is left to the caller.
func (c *Client) do(ctx context.Context, op, method, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		c.record(op, outcomeTransportError)
		return nil, &TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(op, outcomeTransportError)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.record(op, outcomeTransportError)
		return nil, &TransportError{Op: op, Err: fmt.Errorf("reading response: %w", err)}
	}

	c.logger.Debug("backend request",
		"operation", op,
		"method", method,
		"url", target,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode/100 != 2 {
		c.record(op, outcomeAPIError)
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Detail: parseDetail(body)}
	}
	return body, nil
}

func (c *Client) record(op, outcome string) {
	c.requests.With(prometheus.Labels{"operation": op, "outcome": outcome}).Inc()
}

// parseDetail extracts a string "detail" field. Bodies that are not JSON, or
// whose detail is not a string, yield "".
func parseDetail(body []byte) string {
	var resp errorResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Detail) == 0 {
		return ""
	}
	var detail string
	if err := json.Unmarshal(resp.Detail, &detail); err != nil {
		return ""
	}
	return detail
}

// EscapeComponent percent-encodes s for use as a single path segment or query
// value. Spaces become %20 rather than "+".
func EscapeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// DetailOf returns the backend detail carried by err, if any.
func DetailOf(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail, true
	}
	return "", false
}
