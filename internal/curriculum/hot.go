package curriculum

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// HotTopicPatch carries optional field updates for a hot topic. Nil fields are
// left unchanged.
type HotTopicPatch struct {
	Name         *string `json:"name,omitempty"`
	Area         *string `json:"area,omitempty"`
	Category     *string `json:"category,omitempty"`
	Observations *string `json:"observations,omitempty"`
}

// Register is an immutable ordered list of hot topics plus their completion
// checks. Checks are keyed by the hot topic's stable ID, so renames and
// reorders never lose them.
type Register struct {
	topics  []HotTopic
	checked map[string]bool
}

// NewRegister builds a Register. Topics missing an ID get a fresh one; checks
// for IDs not in topics are dropped.
func NewRegister(topics []HotTopic, checked map[string]bool) Register {
	r := Register{
		topics:  make([]HotTopic, 0, len(topics)),
		checked: make(map[string]bool),
	}
	seen := make(map[string]bool, len(topics))
	for _, h := range topics {
		if h.ID == "" || seen[h.ID] {
			h.ID = uuid.NewString()
		}
		seen[h.ID] = true
		r.topics = append(r.topics, h)
	}
	for id, ok := range checked {
		if ok && seen[id] {
			r.checked[id] = true
		}
	}
	return r
}

// Topics returns a copy of the hot topics in order.
func (r Register) Topics() []HotTopic {
	return append([]HotTopic(nil), r.topics...)
}

// Len returns the number of hot topics.
func (r Register) Len() int { return len(r.topics) }

// ByID returns the hot topic with the given ID.
func (r Register) ByID(id string) (HotTopic, bool) {
	i := r.Index(id)
	if i < 0 {
		return HotTopic{}, false
	}
	return r.topics[i], true
}

// Index returns the position of the hot topic with the given ID, or -1.
func (r Register) Index(id string) int {
	for i, h := range r.topics {
		if h.ID == id {
			return i
		}
	}
	return -1
}

// Checked reports whether the hot topic is marked complete.
func (r Register) Checked(id string) bool {
	return r.checked[id]
}

// CheckedMap returns a copy of the completion checks.
func (r Register) CheckedMap() map[string]bool {
	out := make(map[string]bool, len(r.checked))
	for id, ok := range r.checked {
		out[id] = ok
	}
	return out
}

// CompletedCount counts checked entries that still exist in the list.
func (r Register) CompletedCount() int {
	n := 0
	for _, h := range r.topics {
		if r.checked[h.ID] {
			n++
		}
	}
	return n
}

// Add appends a hot topic, assigning it a fresh ID.
func (r Register) Add(h HotTopic) (Register, HotTopic, error) {
	h.Name = strings.TrimSpace(h.Name)
	if h.Name == "" {
		return r, HotTopic{}, ErrEmptyName
	}
	h.ID = uuid.NewString()
	next := r.clone()
	next.topics = append(next.topics, h)
	return next, h, nil
}

// Update applies a patch to the hot topic with the given ID. Its check state
// is preserved.
func (r Register) Update(id string, p HotTopicPatch) (Register, HotTopic, error) {
	i := r.Index(id)
	if i < 0 {
		return r, HotTopic{}, fmt.Errorf("%w: %s", ErrHotTopicNotFound, id)
	}
	h := r.topics[i]
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return r, HotTopic{}, ErrEmptyName
		}
		h.Name = name
	}
	if p.Area != nil {
		h.Area = *p.Area
	}
	if p.Category != nil {
		h.Category = *p.Category
	}
	if p.Observations != nil {
		h.Observations = *p.Observations
	}
	next := r.clone()
	next.topics[i] = h
	return next, h, nil
}

// Delete removes a hot topic and its check.
func (r Register) Delete(id string) (Register, error) {
	i := r.Index(id)
	if i < 0 {
		return r, fmt.Errorf("%w: %s", ErrHotTopicNotFound, id)
	}
	next := r.clone()
	next.topics = append(next.topics[:i:i], next.topics[i+1:]...)
	delete(next.checked, id)
	return next, nil
}

// Toggle flips the completion check of a hot topic and returns the new state.
func (r Register) Toggle(id string) (Register, bool, error) {
	if r.Index(id) < 0 {
		return r, false, fmt.Errorf("%w: %s", ErrHotTopicNotFound, id)
	}
	next := r.clone()
	if next.checked[id] {
		delete(next.checked, id)
		return next, false, nil
	}
	next.checked[id] = true
	return next, true, nil
}

// Reset replaces the list with seed. Checks survive only for seed entries
// whose ID was already checked.
func (r Register) Reset(seed []HotTopic) Register {
	return NewRegister(seed, r.checked)
}

func (r Register) clone() Register {
	return Register{
		topics:  append([]HotTopic(nil), r.topics...),
		checked: r.CheckedMap(),
	}
}
