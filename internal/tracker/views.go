package tracker

import (
	"fmt"
	"math"
	"time"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/schedule"
)

// Dashboard computes every progress figure from the current state.
func (t *Tracker) Dashboard() progress.Dashboard {
	var d progress.Dashboard
	t.read(func(s *state) { d = progress.BuildDashboard(s.curriculum, s.register) })
	return d
}

// GlobalProgress covers curriculum topics and hot topics together.
func (t *Tracker) GlobalProgress() progress.Progress {
	var p progress.Progress
	t.read(func(s *state) { p = progress.GlobalProgress(s.curriculum, s.register) })
	return p
}

// AreaProgress covers one area's topics.
func (t *Tracker) AreaProgress(areaID string) (progress.Progress, error) {
	var (
		p  progress.Progress
		ok bool
	)
	t.read(func(s *state) { p, ok = progress.AreaProgress(s.curriculum, areaID) })
	if !ok {
		return progress.Progress{}, classify(fmt.Errorf("%w: %s", curriculum.ErrAreaNotFound, areaID))
	}
	return p, nil
}

// HotProgress covers the hot-topic register.
func (t *Tracker) HotProgress() progress.Progress {
	var p progress.Progress
	t.read(func(s *state) { p = progress.HotProgress(s.register) })
	return p
}

// ExamAverage is the mean score of every exam record as a rounded percent.
func (t *Tracker) ExamAverage() int {
	var avg int
	t.read(func(s *state) { avg = progress.ExamAverage(s.exams) })
	return avg
}

// Resolve looks up the display descriptor of one schedule reference.
func (t *Tracker) Resolve(ref schedule.Ref) (progress.Descriptor, bool) {
	var (
		d  progress.Descriptor
		ok bool
	)
	t.read(func(s *state) { d, ok = t.resolution(s).Lookup(ref) })
	return d, ok
}

// SearchTopics finds curriculum and hot topics by name, ignoring case and
// accents.
func (t *Tracker) SearchTopics(q string) []curriculum.Match {
	var out []curriculum.Match
	t.read(func(s *state) { out = curriculum.Search(s.curriculum.Areas(), s.register.Topics(), q) })
	return out
}

// DaysUntilExam counts calendar days from today to the target exam date. It
// reports false when no date is set. Past dates yield negative counts.
func (t *Tracker) DaysUntilExam() (int, bool) {
	date := t.Preferences().TargetExamDate
	if date == "" {
		return 0, false
	}
	// Both dates are taken in the clock's zone so "today" is the local day.
	now := t.now()
	exam, err := time.ParseInLocation(time.DateOnly, date, now.Location())
	if err != nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(math.Round(exam.Sub(today).Hours() / 24)), true
}
