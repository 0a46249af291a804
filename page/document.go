// Package page holds the in-memory state of one open activity page.
//
// A Document is what a browser tab would hold in its DOM: the list container,
// the selector and the signup form. The controller writes to it and the web
// host renders it. All methods are safe for concurrent use.
package page

import (
	"slices"
	"sync"

	"github.com/nomis52/signup/view"
)

// Snapshot is an immutable copy of a Document.
type Snapshot struct {
	// Loaded is false until the first load result has been applied.
	Loaded    bool
	List      view.List
	ListError string
	Options   []view.Option
	Email     string
	Selected  string
}

// Document is the state of one page.
type Document struct {
	mu   sync.RWMutex
	snap Snapshot
	// fresh is set after an action has already brought the document up to date.
	fresh bool
}

// New returns an empty document.
func New() *Document {
	return &Document{}
}

// ShowList replaces the list container with list and clears any list error.
func (d *Document) ShowList(list view.List) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap.Loaded = true
	d.snap.List = list
	d.snap.ListError = ""
}

// ShowListError replaces the list container with text.
func (d *Document) ShowListError(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap.Loaded = true
	d.snap.List = view.List{}
	d.snap.ListError = text
}

// SetOptions replaces the selector options. A selection that is no longer
// offered is cleared.
func (d *Document) SetOptions(options []view.Option) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap.Options = slices.Clone(options)
	if d.snap.Selected != "" && !slices.ContainsFunc(options, func(o view.Option) bool {
		return o.Value == d.snap.Selected
	}) {
		d.snap.Selected = ""
	}
}

// SetForm records what the user entered in the signup form.
func (d *Document) SetForm(email, selected string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.snap.Email = email
	d.snap.Selected = selected
}

// ResetForm clears the signup form.
func (d *Document) ResetForm() {
	d.SetForm("", "")
}

// MarkFresh records that the document already reflects the latest action, so
// the next render can use it as is instead of loading the list again.
func (d *Document) MarkFresh() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fresh = true
}

// ConsumeFresh reports whether the document can be rendered without a load and
// clears the mark. A document that was never loaded is never fresh.
func (d *Document) ConsumeFresh() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	fresh := d.fresh && d.snap.Loaded
	d.fresh = false
	return fresh
}

// Snapshot returns a copy of the current state.
func (d *Document) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s := d.snap
	s.List = view.List{Entries: slices.Clone(d.snap.List.Entries)}
	s.Options = slices.Clone(d.snap.Options)
	return s
}
