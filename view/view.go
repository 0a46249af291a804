// Package view turns an activity collection into what the page shows.
//
// Render and Options are pure: the same collection always yields the same
// view, and a host replaces its whole list with the result instead of
// patching it. Unregister controls carry their activity and email as data,
// so hosts dispatch clicks by those values rather than by per-control
// handlers that would need rebinding after each render.
package view

import "github.com/nomis52/signup/activity"

// NoParticipants is shown in place of the participant list of an empty activity.
const NoParticipants = "No participants yet"

// Control is an unregister control for one participant of one activity.
type Control struct {
	Activity string
	Email    string
}

// Entry is one rendered activity.
type Entry struct {
	Name        string
	Description string
	Schedule    string
	Capacity    string
	// Participants holds one control per participant, in backend order.
	Participants []Control
}

// Empty reports whether the entry shows the NoParticipants placeholder.
func (e Entry) Empty() bool {
	return len(e.Participants) == 0
}

// List is the rendered activity list.
type List struct {
	Entries []Entry
}

// Controls returns every unregister control in the list, in display order.
func (l List) Controls() []Control {
	var out []Control
	for _, e := range l.Entries {
		out = append(out, e.Participants...)
	}
	return out
}

// Option is one choice in the signup form's activity selector.
type Option struct {
	Value string
	Label string
}

// Render builds the list view of activities, keeping the collection's order.
func Render(activities *activity.Collection) List {
	all := activities.All()
	list := List{Entries: make([]Entry, 0, len(all))}
	for _, a := range all {
		entry := Entry{
			Name:        a.Name,
			Description: a.Description,
			Schedule:    a.Schedule,
			Capacity:    a.Capacity(),
		}
		for _, email := range a.Participants {
			entry.Participants = append(entry.Participants, Control{Activity: a.Name, Email: email})
		}
		list.Entries = append(list.Entries, entry)
	}
	return list
}

// Options builds the selector choices from the collection's names, in order.
func Options(activities *activity.Collection) []Option {
	names := activities.Names()
	out := make([]Option, 0, len(names))
	for _, name := range names {
		out = append(out, Option{Value: name, Label: name})
	}
	return out
}
