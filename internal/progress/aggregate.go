package progress

import (
	"math"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/schedule"
)

// Progress is a completed/total pair with its rounded percentage.
type Progress struct {
	Completed  int `json:"completed"`
	InProgress int `json:"inProgress"`
	Total      int `json:"total"`
	Percent    int `json:"percent"`
}

// Percent rounds completed/total*100 to the nearest integer; 0 when total is 0.
func Percent(completed, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func (p Progress) add(q Progress) Progress {
	p.Completed += q.Completed
	p.InProgress += q.InProgress
	p.Total += q.Total
	p.Percent = Percent(p.Completed, p.Total)
	return p
}

func countTopics(topics []curriculum.Topic) Progress {
	var p Progress
	for _, t := range topics {
		p.Total++
		switch {
		case t.Status.Done():
			p.Completed++
		case t.Status == curriculum.StatusInProgress:
			p.InProgress++
		}
	}
	p.Percent = Percent(p.Completed, p.Total)
	return p
}

// CurriculumProgress aggregates every curriculum topic, without hot topics.
func CurriculumProgress(c curriculum.Curriculum) Progress {
	var p Progress
	for _, a := range c.Areas() {
		p = p.add(countTopics(a.Topics))
	}
	return p
}

// AreaProgress aggregates one area. An unknown area reports zeros.
func AreaProgress(c curriculum.Curriculum, areaID string) (Progress, bool) {
	a, ok := c.Area(areaID)
	if !ok {
		return Progress{}, false
	}
	return countTopics(a.Topics), true
}

// HotProgress aggregates the hot-topic register.
func HotProgress(reg curriculum.Register) Progress {
	p := Progress{Completed: reg.CompletedCount(), Total: reg.Len()}
	p.Percent = Percent(p.Completed, p.Total)
	return p
}

// GlobalProgress aggregates curriculum and hot topics together.
func GlobalProgress(c curriculum.Curriculum, reg curriculum.Register) Progress {
	return CurriculumProgress(c).add(HotProgress(reg))
}

// Dashboard is the combined progress view.
type Dashboard struct {
	Global     Progress            `json:"global"`
	Curriculum Progress            `json:"curriculum"`
	Hot        Progress            `json:"hot"`
	Areas      map[string]Progress `json:"areas"`
}

// BuildDashboard computes every aggregate in one pass over the inputs.
func BuildDashboard(c curriculum.Curriculum, reg curriculum.Register) Dashboard {
	d := Dashboard{
		Hot:   HotProgress(reg),
		Areas: make(map[string]Progress),
	}
	for _, a := range c.Areas() {
		ap := countTopics(a.Topics)
		d.Areas[a.ID] = ap
		d.Curriculum = d.Curriculum.add(ap)
	}
	d.Global = d.Curriculum.add(d.Hot)
	return d
}

// MonthRollup resolves the month's topic set, silently dropping references
// that no longer resolve.
func MonthRollup(s schedule.Store, month string, res Resolution) []Descriptor {
	refs := s.MonthTopicSet(month)
	out := make([]Descriptor, 0, len(refs))
	for _, ref := range refs {
		if d, ok := res.Lookup(ref); ok {
			out = append(out, d)
		}
	}
	return out
}

// DayView resolves one day's list in order, dropping dangling references.
func DayView(s schedule.Store, month string, day schedule.Weekday, res Resolution) []Descriptor {
	refs := s.Day(month, day)
	out := make([]Descriptor, 0, len(refs))
	for _, ref := range refs {
		if d, ok := res.Lookup(ref); ok {
			out = append(out, d)
		}
	}
	return out
}
