// Package console hosts the activity controller in a terminal.
//
// The list is printed instead of rendered into a page, status messages are
// printed as "[kind] text" lines and the unregister confirmation is read from
// standard input. Each command performs one action and returns, so the banner
// hide timer does not apply here.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nomis52/signup/banner"
	"github.com/nomis52/signup/view"
)

// Page prints what the web page would show.
type Page struct {
	mu      sync.Mutex
	out     io.Writer
	options []view.Option
}

// NewPage creates a Page writing to out.
func NewPage(out io.Writer) *Page {
	return &Page{out: out}
}

// ShowList prints the activities.
func (p *Page) ShowList(list view.List) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_ = view.WriteText(p.out, list)
}

// ShowListError prints the load failure.
func (p *Page) ShowListError(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.out, text)
}

// SetOptions records the activities that can be signed up for.
func (p *Page) SetOptions(options []view.Option) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.options = options
}

// Options returns the last recorded activities.
func (p *Page) Options() []view.Option {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.options
}

// ResetForm is a no-op; the terminal has no form to clear.
func (p *Page) ResetForm() {}

// Notifier prints status messages.
type Notifier struct {
	mu  sync.Mutex
	out io.Writer
}

// NewNotifier creates a Notifier writing to out.
func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{out: out}
}

// Show prints text tagged with its kind.
func (n *Notifier) Show(text string, kind banner.Kind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "[%s] %s\n", kind, text)
}

// Confirm returns a ConfirmFunc that asks on out and reads the answer from in.
// Only "y" or "yes" agree; anything else, including EOF, declines.
func Confirm(in io.Reader, out io.Writer) func(ctx context.Context, prompt string) bool {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, prompt string) bool {
		if ctx.Err() != nil {
			return false
		}
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

// AlwaysConfirm agrees without asking.
func AlwaysConfirm(context.Context, string) bool {
	return true
}
