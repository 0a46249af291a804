// Package activity defines the data model served by the signup backend.
//
// A Collection is the decoded body of GET /activities: a JSON object keyed by
// activity name. Go maps do not keep insertion order, so Collection decodes the
// object token by token and remembers the order the backend sent the keys in.
//
// Example usage:
//
//	var c activity.Collection
//	if err := json.Unmarshal(body, &c); err != nil {
//		return err
//	}
//	for _, a := range c.All() {
//		fmt.Println(a.Name, a.Capacity())
//	}
package activity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Activity is a named, schedulable event with a participant capacity.
type Activity struct {
	Name            string   `json:"-"`
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// Capacity returns the "current/max" participant count.
func (a Activity) Capacity() string {
	return strconv.Itoa(len(a.Participants)) + "/" + strconv.Itoa(a.MaxParticipants)
}

// Validate checks the invariants the client relies on when rendering.
func (a Activity) Validate() error {
	if a.Name == "" {
		return errors.New("activity name is required")
	}
	if a.MaxParticipants < 0 {
		return fmt.Errorf("activity %q: max_participants must be non-negative, got %d", a.Name, a.MaxParticipants)
	}
	return nil
}

// Collection is an ordered mapping from activity name to Activity.
// The zero value is an empty collection ready to use.
type Collection struct {
	order []string
	byKey map[string]Activity
}

// NewCollection builds a collection from activities in the given order.
// A repeated name replaces the earlier entry but keeps its position.
func NewCollection(activities ...Activity) *Collection {
	c := &Collection{}
	for _, a := range activities {
		c.Put(a)
	}
	return c
}

// Put adds or replaces an activity.
func (c *Collection) Put(a Activity) {
	if c.byKey == nil {
		c.byKey = make(map[string]Activity)
	}
	if _, ok := c.byKey[a.Name]; !ok {
		c.order = append(c.order, a.Name)
	}
	c.byKey[a.Name] = a
}

// Len returns the number of activities.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Get returns the activity with the given name.
func (c *Collection) Get(name string) (Activity, bool) {
	if c == nil {
		return Activity{}, false
	}
	a, ok := c.byKey[name]
	return a, ok
}

// Names returns the activity names in backend order.
func (c *Collection) Names() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.order...)
}

// All returns the activities in backend order.
func (c *Collection) All() []Activity {
	if c == nil {
		return nil
	}
	out := make([]Activity, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.byKey[name])
	}
	return out
}

// UnmarshalJSON decodes a JSON object keyed by activity name, keeping key order.
func (c *Collection) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("reading activities: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("activities must be a JSON object, got %v", tok)
	}

	decoded := Collection{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("reading activity name: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var a Activity
		if err := dec.Decode(&a); err != nil {
			return fmt.Errorf("decoding activity %q: %w", name, err)
		}
		a.Name = name
		if err := a.Validate(); err != nil {
			return err
		}
		decoded.Put(a)
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("reading end of activities: %w", err)
	}

	*c = decoded
	return nil
}

// MarshalJSON encodes the collection as a JSON object in backend order.
func (c Collection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		a := c.byKey[name]
		if a.Participants == nil {
			a.Participants = []string{}
		}
		val, err := json.Marshal(a)
		if err != nil {
			return nil, fmt.Errorf("encoding activity %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
