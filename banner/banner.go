// Package banner implements the transient status message shown after a user action.
//
// Only one message is visible at a time. Show replaces the current text and
// kind and restarts the hide timer, so the latest call always wins and an
// earlier call's timer can never hide a newer message.
package banner

import (
	"sync"
	"time"
)

// DefaultDuration is how long a message stays visible.
const DefaultDuration = 5 * time.Second

// Kind classifies a message.
type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
)

// Message is the visible banner content.
type Message struct {
	Text string
	Kind Kind
	// Remaining is how long the message will stay visible.
	Remaining time.Duration
}

// Timer is the subset of *time.Timer the banner needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// Banner holds the current message. It is safe for concurrent use.
type Banner struct {
	duration  time.Duration
	afterFunc AfterFunc
	now       func() time.Time

	mu       sync.Mutex
	current  Message
	visible  bool
	deadline time.Time
	timer    Timer
	// generation increases on every Show so a stale timer can detect it was superseded.
	generation uint64
}

// Option configures a Banner.
type Option func(*Banner)

// WithDuration sets how long each message stays visible.
func WithDuration(d time.Duration) Option {
	return func(b *Banner) {
		if d > 0 {
			b.duration = d
		}
	}
}

// WithClock replaces the timer source and wall clock, for tests.
func WithClock(afterFunc AfterFunc, now func() time.Time) Option {
	return func(b *Banner) {
		b.afterFunc = afterFunc
		b.now = now
	}
}

// New creates a hidden banner.
func New(opts ...Option) *Banner {
	b := &Banner{
		duration: DefaultDuration,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Show displays text with the given kind and restarts the hide timer.
func (b *Banner) Show(text string, kind Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.timer != nil {
		b.timer.Stop()
	}
	b.generation++
	gen := b.generation

	b.current = Message{Text: text, Kind: kind}
	b.visible = true
	b.deadline = b.now().Add(b.duration)
	b.timer = b.afterFunc(b.duration, func() { b.hide(gen) })
}

// hide hides the banner unless a newer message was shown since gen.
func (b *Banner) hide(gen uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen != b.generation {
		return
	}
	b.visible = false
	b.timer = nil
}

// Current returns the visible message, or false when the banner is hidden.
func (b *Banner) Current() (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.visible {
		return Message{}, false
	}
	msg := b.current
	msg.Remaining = b.deadline.Sub(b.now())
	if msg.Remaining < 0 {
		msg.Remaining = 0
	}
	return msg, true
}

// Duration returns how long each message stays visible.
func (b *Banner) Duration() time.Duration {
	return b.duration
}
