package controller

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/signup/activity"
	"github.com/nomis52/signup/apiclient"
	"github.com/nomis52/signup/apitest"
	"github.com/nomis52/signup/banner"
	"github.com/nomis52/signup/logging"
	"github.com/nomis52/signup/metrics"
	"github.com/nomis52/signup/page"
	"github.com/nomis52/signup/view"
)

type shownMessage struct {
	Text string
	Kind banner.Kind
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []shownMessage
}

func (n *recordingNotifier) Show(text string, kind banner.Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, shownMessage{Text: text, Kind: kind})
}

func (n *recordingNotifier) last() shownMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return shownMessage{}
	}
	return n.messages[len(n.messages)-1]
}

type harness struct {
	backend  *apitest.Backend
	doc      *page.Document
	notifier *recordingNotifier
	client   *ActivityClient
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend := apitest.NewBackend(t, apitest.SeedActivities()...)
	api, err := apiclient.New(backend.URL())
	require.NoError(t, err)

	h := &harness{
		backend:  backend,
		doc:      page.New(),
		notifier: &recordingNotifier{},
	}
	h.client, err = New(api, h.doc, h.notifier, WithLogger(logging.Discard()))
	require.NoError(t, err)
	return h
}

func confirmWith(answer bool, asked *string) ConfirmFunc {
	return func(ctx context.Context, prompt string) bool {
		if asked != nil {
			*asked = prompt
		}
		return answer
	}
}

func TestLoadActivities(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.client.LoadActivities(context.Background()))

	snap := h.doc.Snapshot()
	require.Len(t, snap.List.Entries, 3)
	require.Len(t, snap.Options, 3)
	for i, name := range []string{"Chess Club", "Programming Class", "Gym Class"} {
		assert.Equal(t, name, snap.List.Entries[i].Name)
		assert.Equal(t, name, snap.Options[i].Value)
	}

	gym := snap.List.Entries[2]
	assert.True(t, gym.Empty())

	chess := snap.List.Entries[0]
	assert.Equal(t, []view.Control{
		{Activity: "Chess Club", Email: "michael@mergington.edu"},
		{Activity: "Chess Club", Email: "daniel@mergington.edu"},
	}, chess.Participants)
}

func TestLoadActivities_NetworkErrorLeavesSelectorEmpty(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	api, err := apiclient.New(url)
	require.NoError(t, err)
	doc := page.New()
	client, err := New(api, doc, &recordingNotifier{}, WithLogger(logging.Discard()))
	require.NoError(t, err)

	err = client.LoadActivities(context.Background())
	require.Error(t, err)

	snap := doc.Snapshot()
	assert.Equal(t, MsgLoadFailed, snap.ListError)
	assert.Empty(t, snap.List.Entries)
	assert.Empty(t, snap.Options)
}

func TestLoadActivities_FailureLeavesSelectorUntouched(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.client.LoadActivities(context.Background()))

	h.backend.Queue(apitest.Response{Status: http.StatusInternalServerError, Body: `{"detail":"down"}`})
	require.Error(t, h.client.LoadActivities(context.Background()))

	snap := h.doc.Snapshot()
	assert.Equal(t, MsgLoadFailed, snap.ListError)
	assert.Len(t, snap.Options, 3)
}

func TestLoadActivities_UnparseableBody(t *testing.T) {
	h := newHarness(t)
	h.backend.Queue(apitest.Response{Status: http.StatusOK, Body: `not json`})

	require.Error(t, h.client.LoadActivities(context.Background()))
	assert.Equal(t, MsgLoadFailed, h.doc.Snapshot().ListError)
}

func TestSubmitSignup_MissingFields(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		activity string
	}{
		{name: "empty email", email: "", activity: "Chess Club"},
		{name: "empty activity", email: "a@x.com", activity: ""},
		{name: "blank email", email: "   ", activity: "Chess Club"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			err := h.client.SubmitSignup(context.Background(), tt.email, tt.activity)

			assert.ErrorIs(t, err, ErrMissingFields)
			assert.Equal(t, shownMessage{Text: MsgFillAllFields, Kind: banner.Error}, h.notifier.last())
			assert.Empty(t, h.backend.Requests())
		})
	}
}

func TestSubmitSignup_Success(t *testing.T) {
	h := newHarness(t)
	h.doc.SetForm("new@mergington.edu", "Chess Club")

	require.NoError(t, h.client.SubmitSignup(context.Background(), "new@mergington.edu", "Chess Club"))

	assert.Equal(t, shownMessage{Text: "Signed up new@mergington.edu for Chess Club", Kind: banner.Success}, h.notifier.last())

	snap := h.doc.Snapshot()
	assert.Empty(t, snap.Email)
	assert.Empty(t, snap.Selected)

	requests := h.backend.Requests()
	require.Len(t, requests, 2)
	assert.Equal(t, apitest.Request{Method: http.MethodPost, Path: "/activities/Chess Club/signup", Email: "new@mergington.edu"}, requests[0])
	assert.Equal(t, http.MethodGet, requests[1].Method)
	assert.Equal(t, "/activities", requests[1].Path)

	assert.Equal(t, "3/12", snap.List.Entries[0].Capacity)
}

func TestSubmitSignup_MockedOK(t *testing.T) {
	h := newHarness(t)
	h.doc.SetForm("a@x.com", "Chess Club")
	h.backend.Queue(apitest.Response{Status: http.StatusOK, Body: `{"message":"ok"}`})

	require.NoError(t, h.client.SubmitSignup(context.Background(), "a@x.com", "Chess Club"))

	assert.Equal(t, shownMessage{Text: "ok", Kind: banner.Success}, h.notifier.last())
	assert.Empty(t, h.doc.Snapshot().Email)
	assert.Equal(t, 1, h.backend.Count(http.MethodGet, "/activities"))
}

func TestSubmitSignup_ServerDetailShownVerbatim(t *testing.T) {
	h := newHarness(t)
	h.doc.SetForm("michael@mergington.edu", "Chess Club")

	err := h.client.SubmitSignup(context.Background(), "michael@mergington.edu", "Chess Club")
	require.Error(t, err)

	assert.Equal(t, shownMessage{Text: "Student is already registered for this activity", Kind: banner.Error}, h.notifier.last())
	snap := h.doc.Snapshot()
	assert.Equal(t, "michael@mergington.edu", snap.Email)
	assert.Equal(t, "Chess Club", snap.Selected)
	assert.Zero(t, h.backend.Count(http.MethodGet, "/activities"))
}

func TestSubmitSignup_GenericFailure(t *testing.T) {
	tests := []struct {
		name     string
		response apitest.Response
	}{
		{name: "unparseable error body", response: apitest.Response{Status: http.StatusInternalServerError, Body: `oops`}},
		{name: "error body without detail", response: apitest.Response{Status: http.StatusBadRequest, Body: `{"error":"x"}`}},
		{name: "unparseable success body", response: apitest.Response{Status: http.StatusOK, Body: `<html>`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.doc.SetForm("a@x.com", "Chess Club")
			h.backend.Queue(tt.response)

			require.Error(t, h.client.SubmitSignup(context.Background(), "a@x.com", "Chess Club"))

			assert.Equal(t, shownMessage{Text: MsgSignupFailed, Kind: banner.Error}, h.notifier.last())
			assert.Equal(t, "a@x.com", h.doc.Snapshot().Email)
			assert.Zero(t, h.backend.Count(http.MethodGet, "/activities"))
		})
	}
}

func TestSubmitUnregister_Declined(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.client.LoadActivities(context.Background()))
	before := h.doc.Snapshot()
	h.backend.Reset()

	var asked string
	err := h.client.SubmitUnregister(context.Background(), "michael@mergington.edu", "Chess Club", confirmWith(false, &asked))

	assert.ErrorIs(t, err, ErrDeclined)
	assert.Equal(t, "Are you sure you want to unregister michael@mergington.edu from Chess Club?", asked)
	assert.Empty(t, h.backend.Requests())
	assert.Equal(t, before, h.doc.Snapshot())
	assert.Empty(t, h.notifier.messages)
}

func TestSubmitUnregister_NilConfirmDeclines(t *testing.T) {
	h := newHarness(t)

	err := h.client.SubmitUnregister(context.Background(), "michael@mergington.edu", "Chess Club", nil)

	assert.ErrorIs(t, err, ErrDeclined)
	assert.Empty(t, h.backend.Requests())
}

func TestSubmitUnregister_Success(t *testing.T) {
	h := newHarness(t)

	err := h.client.SubmitUnregister(context.Background(), "michael@mergington.edu", "Chess Club", confirmWith(true, nil))
	require.NoError(t, err)

	assert.Equal(t, shownMessage{Text: "Unregistered michael@mergington.edu from Chess Club", Kind: banner.Success}, h.notifier.last())
	assert.Equal(t, 1, h.backend.Count(http.MethodDelete, "/activities/Chess Club/unregister"))
	assert.Equal(t, 1, h.backend.Count(http.MethodGet, "/activities"))

	chess := h.doc.Snapshot().List.Entries[0]
	assert.Equal(t, []view.Control{{Activity: "Chess Club", Email: "daniel@mergington.edu"}}, chess.Participants)
}

func TestSubmitUnregister_Failure(t *testing.T) {
	h := newHarness(t)

	err := h.client.SubmitUnregister(context.Background(), "nobody@mergington.edu", "Chess Club", confirmWith(true, nil))
	require.Error(t, err)

	assert.Equal(t, shownMessage{Text: "Student is not registered for this activity", Kind: banner.Error}, h.notifier.last())
	assert.Zero(t, h.backend.Count(http.MethodGet, "/activities"))
}

func TestSubmitUnregister_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	api, err := apiclient.New(url)
	require.NoError(t, err)
	notifier := &recordingNotifier{}
	client, err := New(api, page.New(), notifier, WithLogger(logging.Discard()))
	require.NoError(t, err)

	err = client.SubmitUnregister(context.Background(), "a@x.com", "Chess Club", confirmWith(true, nil))

	var transportErr *apiclient.TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.Equal(t, shownMessage{Text: MsgUnregisterFailed, Kind: banner.Error}, notifier.last())
}

// gatedAPI lets a test decide when each ListActivities call returns.
type gatedAPI struct {
	calls chan gatedCall
}

type gatedCall struct {
	reply chan listReply
}

type listReply struct {
	activities *activity.Collection
	err        error
}

func (g *gatedAPI) ListActivities(ctx context.Context) (*activity.Collection, error) {
	call := gatedCall{reply: make(chan listReply)}
	g.calls <- call
	r := <-call.reply
	return r.activities, r.err
}

func (g *gatedAPI) Signup(ctx context.Context, activityName, email string) (string, error) {
	return "", errors.New("not implemented")
}

func (g *gatedAPI) Unregister(ctx context.Context, activityName, email string) (string, error) {
	return "", errors.New("not implemented")
}

func TestLoadActivities_StaleResponseDiscarded(t *testing.T) {
	api := &gatedAPI{calls: make(chan gatedCall)}
	doc := page.New()
	registry, err := metrics.NewScrapeRegistry()
	require.NoError(t, err)
	client, err := New(api, doc, &recordingNotifier{}, WithLogger(logging.Discard()), WithMetrics(registry))
	require.NoError(t, err)

	older := make(chan error, 1)
	go func() { older <- client.LoadActivities(context.Background()) }()
	first := <-api.calls

	newer := make(chan error, 1)
	go func() { newer <- client.LoadActivities(context.Background()) }()
	second := <-api.calls

	fresh := activity.NewCollection(activity.Activity{Name: "Fresh", MaxParticipants: 1})
	stale := activity.NewCollection(activity.Activity{Name: "Stale", MaxParticipants: 1})

	// The newer request resolves first, then the older one arrives late.
	second.reply <- listReply{activities: fresh}
	require.NoError(t, <-newer)
	first.reply <- listReply{activities: stale}
	require.NoError(t, <-older)

	snap := doc.Snapshot()
	require.Len(t, snap.List.Entries, 1)
	assert.Equal(t, "Fresh", snap.List.Entries[0].Name)
	assert.Equal(t, []view.Option{{Value: "Fresh", Label: "Fresh"}}, snap.Options)

	w := httptest.NewRecorder()
	registry.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "client_stale_loads_discarded_total 1")
}

func TestLoadActivities_StaleErrorDiscarded(t *testing.T) {
	api := &gatedAPI{calls: make(chan gatedCall)}
	doc := page.New()
	client, err := New(api, doc, &recordingNotifier{}, WithLogger(logging.Discard()))
	require.NoError(t, err)

	older := make(chan error, 1)
	go func() { older <- client.LoadActivities(context.Background()) }()
	first := <-api.calls

	newer := make(chan error, 1)
	go func() { newer <- client.LoadActivities(context.Background()) }()
	second := <-api.calls

	second.reply <- listReply{activities: activity.NewCollection(activity.Activity{Name: "Fresh", MaxParticipants: 1})}
	require.NoError(t, <-newer)
	first.reply <- listReply{err: errors.New("connection reset")}
	require.NoError(t, <-older)

	snap := doc.Snapshot()
	assert.Empty(t, snap.ListError)
	assert.Len(t, snap.List.Entries, 1)
}

func TestShowMessage(t *testing.T) {
	h := newHarness(t)
	h.client.ShowMessage("hello", banner.Success)
	assert.Equal(t, shownMessage{Text: "hello", Kind: banner.Success}, h.notifier.last())
}

func TestUnregisterPrompt(t *testing.T) {
	assert.Equal(t, "Are you sure you want to unregister a@x.com from Chess Club?", UnregisterPrompt("a@x.com", "Chess Club"))
}

func TestWithStaleCounter(t *testing.T) {
	_, err := New(&gatedAPI{}, page.New(), &recordingNotifier{}, WithStaleCounter(nil))
	assert.Error(t, err)

	registry, err := metrics.NewScrapeRegistry()
	require.NoError(t, err)
	counter, err := registry.NewCounter(prometheus.CounterOpts{Name: "shared_stale_total"})
	require.NoError(t, err)

	// Two clients on one counter, as the web host builds one per session.
	for range 2 {
		_, err := New(&gatedAPI{}, page.New(), &recordingNotifier{}, WithStaleCounter(counter))
		require.NoError(t, err)
	}
}
