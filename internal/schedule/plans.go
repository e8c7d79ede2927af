package schedule

import (
	"maps"
	"slices"
)

// Plans holds free-text study plans per month. It shares the month ID
// namespace with Store but is otherwise independent.
type Plans struct {
	text map[string]string
}

// NewPlans builds Plans from a copy of m, dropping empty entries.
func NewPlans(m map[string]string) Plans {
	p := Plans{text: make(map[string]string, len(m))}
	for month, text := range m {
		if text != "" {
			p.text[month] = text
		}
	}
	return p
}

// Get returns the plan for a month, or "" when unset.
func (p Plans) Get(month string) string { return p.text[month] }

// Set returns Plans with the month's text replaced. Empty text removes it.
func (p Plans) Set(month, text string) Plans {
	next := Plans{text: maps.Clone(p.text)}
	if next.text == nil {
		next.text = make(map[string]string)
	}
	if text == "" {
		delete(next.text, month)
	} else {
		next.text[month] = text
	}
	return next
}

// Months lists the months that have a plan, sorted.
func (p Plans) Months() []string {
	return slices.Sorted(maps.Keys(p.text))
}

// Export returns a copy of all plans.
func (p Plans) Export() map[string]string {
	out := maps.Clone(p.text)
	if out == nil {
		out = make(map[string]string)
	}
	return out
}
