package board

import (
	"sort"
	"strings"
)

// DefaultMaxSuggestions caps Complete results when limit is not positive.
const DefaultMaxSuggestions = 10

// Complete returns names starting with input, ignoring case and surrounding
// whitespace. Shorter names sort first, then alphabetically.
func Complete(names []string, input string, limit int) []string {
	prefix := strings.ToLower(strings.TrimSpace(input))
	if prefix == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMaxSuggestions
	}
	var out []string
	for _, name := range names {
		if strings.HasPrefix(strings.ToLower(name), prefix) {
			out = append(out, name)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Collapsible keeps the first Visible rows shown and toggles the rest.
type Collapsible struct {
	Visible int
	Label   string
	shown   bool
}

// NewCollapsible returns a collapsed section. The label starts with "Show".
func NewCollapsible(visible int, label string) *Collapsible {
	return &Collapsible{Visible: visible, Label: label}
}

// Toggle flips the hidden rows and updates the label.
func (c *Collapsible) Toggle() {
	c.shown = !c.shown
	c.Label = ToggleLabel(c.Label, c.shown)
}

// Expanded reports whether hidden rows are shown.
func (c *Collapsible) Expanded() bool {
	return c.shown
}

// Count returns how many of total rows are currently shown.
func (c *Collapsible) Count(total int) int {
	if c.shown || c.Visible <= 0 || total <= c.Visible {
		return total
	}
	return c.Visible
}

// Hidden returns how many of total rows are currently hidden.
func (c *Collapsible) Hidden(total int) int {
	return total - c.Count(total)
}

// ToggleLabel replaces the four-letter verb at the start of label with
// "Hide" when shown and "Show" otherwise.
func ToggleLabel(label string, shown bool) string {
	verb := "Show"
	if shown {
		verb = "Hide"
	}
	if len(label) < 4 {
		return verb
	}
	return verb + label[4:]
}
