package banner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock fires scheduled functions only when Advance moves past their deadline.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped && !t.fired
	t.stopped = true
	return wasActive
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 9, 1, 15, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{at: c.now.Add(d), f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(c.now) {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	for _, t := range due {
		t.f()
	}
}

func newTestBanner(clock *fakeClock, opts ...Option) *Banner {
	return New(append([]Option{WithClock(clock.AfterFunc, clock.Now)}, opts...)...)
}

func TestBanner_HiddenInitially(t *testing.T) {
	b := New()
	_, ok := b.Current()
	assert.False(t, ok)
	assert.Equal(t, DefaultDuration, b.Duration())
}

func TestBanner_HidesAfterDuration(t *testing.T) {
	clock := newFakeClock()
	b := newTestBanner(clock)

	b.Show("Signed up", Success)

	msg, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "Signed up", msg.Text)
	assert.Equal(t, Success, msg.Kind)
	assert.Equal(t, 5*time.Second, msg.Remaining)

	clock.Advance(4 * time.Second)
	msg, ok = b.Current()
	require.True(t, ok)
	assert.Equal(t, time.Second, msg.Remaining)

	clock.Advance(time.Second)
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestBanner_SecondShowWins(t *testing.T) {
	clock := newFakeClock()
	b := newTestBanner(clock)

	b.Show("first", Success)
	clock.Advance(3 * time.Second)
	b.Show("second", Error)

	// The first message's original deadline passes; the second stays.
	clock.Advance(2 * time.Second)
	msg, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Text)
	assert.Equal(t, Error, msg.Kind)

	// Five seconds after the second call the banner is hidden.
	clock.Advance(3 * time.Second)
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestBanner_StaleTimerDoesNotHideNewerMessage(t *testing.T) {
	clock := newFakeClock()
	var scheduled []func()
	b := New(WithClock(func(d time.Duration, f func()) Timer {
		scheduled = append(scheduled, f)
		// A timer that cannot be stopped, as when it has already fired.
		return &fakeTimer{fired: true}
	}, clock.Now))

	b.Show("first", Success)
	b.Show("second", Success)
	require.Len(t, scheduled, 2)

	scheduled[0]()
	msg, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Text)

	scheduled[1]()
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestBanner_WithDuration(t *testing.T) {
	clock := newFakeClock()
	b := newTestBanner(clock, WithDuration(time.Second))

	b.Show("quick", Error)
	clock.Advance(time.Second)
	_, ok := b.Current()
	assert.False(t, ok)

	ignored := New(WithDuration(0))
	assert.Equal(t, DefaultDuration, ignored.Duration())
}

func TestBanner_RealTimer(t *testing.T) {
	b := New(WithDuration(20 * time.Millisecond))
	b.Show("hello", Success)

	_, ok := b.Current()
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := b.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}
