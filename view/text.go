package view

import (
	"fmt"
	"io"
	"strings"
)

// WriteText writes the list as plain text for terminals.
func WriteText(w io.Writer, list List) error {
	var b strings.Builder
	for i, e := range list.Entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s\n", e.Name)
		fmt.Fprintf(&b, "  Description: %s\n", e.Description)
		fmt.Fprintf(&b, "  Schedule:    %s\n", e.Schedule)
		fmt.Fprintf(&b, "  Capacity:    %s\n", e.Capacity)
		b.WriteString("  Current Participants:\n")
		if e.Empty() {
			fmt.Fprintf(&b, "    %s\n", NoParticipants)
			continue
		}
		for _, c := range e.Participants {
			fmt.Fprintf(&b, "    - %s\n", c.Email)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
