package console

import (
	"bytes"
	"context"
	"net/http"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nomis52/signup/apiclient"
	"github.com/nomis52/signup/apitest"
	"github.com/nomis52/signup/banner"
	"github.com/nomis52/signup/controller"
	"github.com/nomis52/signup/logging"
	"github.com/nomis52/signup/view"
)

func setup(t *testing.T, stdin string) (*apitest.Backend, *apiclient.Client, Env, *bytes.Buffer) {
	t.Helper()
	backend := apitest.NewBackend(t, apitest.SeedActivities()...)
	api, err := apiclient.New(backend.URL(), apiclient.WithLogger(logging.Discard()))
	require.NoError(t, err)

	var out bytes.Buffer
	env := Env{In: strings.NewReader(stdin), Out: &out, Logger: logging.Discard()}
	return backend, api, env, &out
}

func TestRun_List(t *testing.T) {
	_, api, env, out := setup(t, "")

	require.NoError(t, Run(context.Background(), api, env, []string{"list"}))

	assert.Contains(t, out.String(), "Chess Club\n  Description: Learn strategies")
	assert.Contains(t, out.String(), "    - michael@mergington.edu\n")
	assert.Contains(t, out.String(), "Gym Class")
	assert.Contains(t, out.String(), view.NoParticipants)
}

func TestRun_ListFailure(t *testing.T) {
	backend, api, env, out := setup(t, "")
	backend.Queue(apitest.Response{Status: http.StatusInternalServerError, Body: `{}`})

	err := Run(context.Background(), api, env, []string{"list"})

	assert.Error(t, err)
	assert.Equal(t, controller.MsgLoadFailed+"\n", out.String())
}

func TestRun_Signup(t *testing.T) {
	backend, api, env, out := setup(t, "")

	err := Run(context.Background(), api, env, []string{"signup", "-email", "new@mergington.edu", "-activity", "Gym Class"})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "[success] Signed up new@mergington.edu for Gym Class\n"))
	assert.Contains(t, out.String(), "    - new@mergington.edu\n")
	assert.Equal(t, []string{"new@mergington.edu"}, backend.Participants("Gym Class"))
}

func TestRun_SignupRefused(t *testing.T) {
	_, api, env, out := setup(t, "")

	err := Run(context.Background(), api, env, []string{"signup", "-email", "michael@mergington.edu", "-activity", "Chess Club"})

	assert.Error(t, err)
	assert.Equal(t, "[error] Student is already registered for this activity\n", out.String())
}

func TestRun_SignupMissingFields(t *testing.T) {
	backend, api, env, out := setup(t, "")

	err := Run(context.Background(), api, env, []string{"signup", "-email", "new@mergington.edu"})

	assert.ErrorIs(t, err, controller.ErrMissingFields)
	assert.Equal(t, "[error] "+controller.MsgFillAllFields+"\n", out.String())
	assert.Empty(t, backend.Requests())
}

func TestRun_Unregister(t *testing.T) {
	tests := []struct {
		name      string
		stdin     string
		args      []string
		removed   bool
		wantInOut string
	}{
		{name: "confirmed", stdin: "y\n", removed: true, wantInOut: "[success] Unregistered michael@mergington.edu from Chess Club"},
		{name: "declined", stdin: "n\n", removed: false, wantInOut: "Cancelled."},
		{name: "eof declines", stdin: "", removed: false, wantInOut: "Cancelled."},
		{name: "yes flag", args: []string{"-yes"}, removed: true, wantInOut: "[success] Unregistered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, api, env, out := setup(t, tt.stdin)

			args := append([]string{"unregister", "-email", "michael@mergington.edu", "-activity", "Chess Club"}, tt.args...)
			require.NoError(t, Run(context.Background(), api, env, args))

			assert.Contains(t, out.String(), tt.wantInOut)
			assert.Equal(t, !tt.removed, slices.Contains(backend.Participants("Chess Club"), "michael@mergington.edu"))
		})
	}
}

func TestRun_UnregisterPrompt(t *testing.T) {
	_, api, env, out := setup(t, "no\n")

	require.NoError(t, Run(context.Background(), api, env, []string{"unregister", "-email", "a@x.com", "-activity", "Chess Club"}))

	assert.True(t, strings.HasPrefix(out.String(), "Are you sure you want to unregister a@x.com from Chess Club? [y/N] "))
}

func TestRun_UsageErrors(t *testing.T) {
	_, api, env, out := setup(t, "")

	assert.ErrorIs(t, Run(context.Background(), api, env, nil), ErrUsage)
	assert.ErrorIs(t, Run(context.Background(), api, env, []string{"dance"}), ErrUsage)
	assert.ErrorIs(t, Run(context.Background(), api, env, []string{"signup", "-bogus"}), ErrUsage)
	assert.Contains(t, out.String(), "Commands:")
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"y\n":     true,
		"YES\n":   true,
		" yes \n": true,
		"yes":     true,
		"n\n":     false,
		"\n":      false,
		"":        false,
		"maybe\n": false,
	}
	for input, want := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(input), &out)(context.Background(), "Sure?")
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "Sure? [y/N] ", out.String())
	}
}

func TestConfirm_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, Confirm(strings.NewReader("y\n"), &bytes.Buffer{})(ctx, "Sure?"))
}

func TestNotifier(t *testing.T) {
	var out bytes.Buffer
	n := NewNotifier(&out)
	n.Show("Signed up", banner.Success)
	n.Show("Nope", banner.Error)
	assert.Equal(t, "[success] Signed up\n[error] Nope\n", out.String())
}
