// Package progress derives read models from the curriculum, the hot-topic
// register and the schedule: the topic resolution map and the aggregate
// progress figures shown on the dashboard.
package progress

import (
	"sync"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/schedule"
)

// Descriptor is everything a view needs to render a schedule slot.
type Descriptor struct {
	Ref          schedule.Ref      `json:"ref"`
	Name         string            `json:"name"`
	AreaLabel    string            `json:"areaLabel"`
	SubAreaLabel string            `json:"subAreaLabel,omitempty"`
	Color        string            `json:"color"`
	IsHot        bool              `json:"isHot"`
	Status       curriculum.Status `json:"status"`
}

// Resolution maps every live reference to its descriptor.
type Resolution map[schedule.Ref]Descriptor

// Lookup resolves a single reference. Dangling references report false.
func (r Resolution) Lookup(ref schedule.Ref) (Descriptor, bool) {
	d, ok := r[ref]
	return d, ok
}

var hotColors = map[string]string{
	"Clínica Médica":            "blue",
	"Cirurgia Geral":            "red",
	"Ginecologia e Obstetrícia": "pink",
	"Pediatria":                 "green",
	"Medicina Preventiva":       "indigo",
}

// HotColor returns the color tag for a hot-topic category.
func HotColor(category string) string {
	if c, ok := hotColors[category]; ok {
		return c
	}
	return "orange"
}

// Resolve builds the resolution map. Curriculum topics are keyed by topic ID;
// hot topics by stable hot ID, with their category as the area label and
// their own area as the sub-area label.
func Resolve(c curriculum.Curriculum, reg curriculum.Register) Resolution {
	res := make(Resolution, c.TopicCount()+reg.Len())
	for _, a := range c.Areas() {
		for _, t := range a.Topics {
			ref := schedule.Curriculum(t.ID)
			res[ref] = Descriptor{
				Ref:          ref,
				Name:         t.Name,
				AreaLabel:    a.Name,
				SubAreaLabel: t.SubArea,
				Color:        a.Color,
				Status:       t.Status,
			}
		}
	}
	for _, h := range reg.Topics() {
		ref := schedule.Hot(h.ID)
		status := curriculum.StatusNotStarted
		if reg.Checked(h.ID) {
			status = curriculum.StatusCompleted
		}
		res[ref] = Descriptor{
			Ref:          ref,
			Name:         h.Name,
			AreaLabel:    h.Category,
			SubAreaLabel: h.Area,
			Color:        HotColor(h.Category),
			IsHot:        true,
			Status:       status,
		}
	}
	return res
}

// MemoKey identifies the inputs of a Resolution. Versions must change
// whenever the corresponding input changes.
type MemoKey struct {
	CurriculumVersion uint64
	RegisterVersion   uint64
}

// Memo caches the last Resolution by input versions. It is safe for
// concurrent use.
type Memo struct {
	mu    sync.Mutex
	key   MemoKey
	res   Resolution
	valid bool
}

// Get returns the cached Resolution for key, building it with Resolve on a
// miss. Callers must not mutate the returned map.
func (m *Memo) Get(key MemoKey, c curriculum.Curriculum, reg curriculum.Register) Resolution {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.key == key {
		return m.res
	}
	m.res = Resolve(c, reg)
	m.key = key
	m.valid = true
	return m.res
}
