package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/schedule"
)

// writeMonth normalizes a month label for a mutation and rejects anything
// that is not a calendar month.
func writeMonth(month string) (string, error) {
	m := schedule.NormalizeMonthID(month)
	if !schedule.ValidMonthID(m) {
		return "", fmt.Errorf("%w: %q", errInvalidMonth, month)
	}
	return m, nil
}

// Day returns one day's references in order; never nil.
func (t *Tracker) Day(month string, day schedule.Weekday) []schedule.Ref {
	var out []schedule.Ref
	t.read(func(s *state) { out = s.schedule.Day(schedule.NormalizeMonthID(month), day) })
	return out
}

// DayView resolves one day's references, skipping dangling ones.
func (t *Tracker) DayView(month string, day schedule.Weekday) []progress.Descriptor {
	var out []progress.Descriptor
	t.read(func(s *state) {
		out = progress.DayView(s.schedule, schedule.NormalizeMonthID(month), day, t.resolution(s))
	})
	return out
}

// SetDay replaces one day's list. Duplicates keep their first position.
func (t *Tracker) SetDay(ctx context.Context, month string, day schedule.Weekday, refs []schedule.Ref) error {
	m, err := writeMonth(month)
	if err != nil {
		return classify(err)
	}
	return t.commit(ctx, EventScheduleUpdated, map[string]any{"month": m, "weekday": int(day), "count": len(refs)}, func(s *state) error {
		next, err := s.schedule.SetDay(m, day, refs)
		if err != nil {
			return err
		}
		s.schedule = next
		return nil
	})
}

// ClearDay empties one day.
func (t *Tracker) ClearDay(ctx context.Context, month string, day schedule.Weekday) error {
	return t.SetDay(ctx, month, day, nil)
}

// AddToDay appends ref to a day unless it is already there. The bool reports
// whether the day changed.
func (t *Tracker) AddToDay(ctx context.Context, month string, day schedule.Weekday, ref schedule.Ref) (bool, error) {
	m, err := writeMonth(month)
	if err != nil {
		return false, classify(err)
	}
	if ref.IsZero() {
		return false, classify(schedule.ErrInvalidRef)
	}
	var added bool
	err = t.commit(ctx, EventScheduleUpdated, map[string]any{"month": m, "weekday": int(day), "add": ref.String()}, func(s *state) error {
		next, changed, err := s.schedule.AddToDay(m, day, ref)
		if err != nil {
			return err
		}
		if !changed {
			return errNoChange
		}
		s.schedule = next
		added = true
		return nil
	})
	return added, err
}

// RemoveFromDay drops ref from a day. The bool reports whether it was there.
func (t *Tracker) RemoveFromDay(ctx context.Context, month string, day schedule.Weekday, ref schedule.Ref) (bool, error) {
	m, err := writeMonth(month)
	if err != nil {
		return false, classify(err)
	}
	var removed bool
	err = t.commit(ctx, EventScheduleUpdated, map[string]any{"month": m, "weekday": int(day), "remove": ref.String()}, func(s *state) error {
		next, changed, err := s.schedule.RemoveFromDay(m, day, ref)
		if err != nil {
			return err
		}
		if !changed {
			return errNoChange
		}
		s.schedule = next
		removed = true
		return nil
	})
	return removed, err
}

// MonthTopicSet returns the de-duplicated references scheduled anywhere in a
// month, dangling ones included.
func (t *Tracker) MonthTopicSet(month string) []schedule.Ref {
	var out []schedule.Ref
	t.read(func(s *state) { out = s.schedule.MonthTopicSet(schedule.NormalizeMonthID(month)) })
	return out
}

// MonthRollup resolves a month's topic set, dropping dangling references, in
// display order.
func (t *Tracker) MonthRollup(month string) []progress.Descriptor {
	var out []progress.Descriptor
	t.read(func(s *state) {
		out = progress.MonthRollup(s.schedule, schedule.NormalizeMonthID(month), t.resolution(s))
	})
	progress.SortDescriptors(out)
	return out
}

// ScheduledMonths lists the months with at least one scheduled day.
func (t *Tracker) ScheduledMonths() []string {
	var out []string
	t.read(func(s *state) { out = s.schedule.Months() })
	return out
}

// Months lists every month with a scheduled day or a plan, sorted.
func (t *Tracker) Months() []string {
	var out []string
	t.read(func(s *state) {
		out = append(s.schedule.Months(), s.plans.Months()...)
	})
	slices.Sort(out)
	return slices.Compact(out)
}

// PruneDanglingReferences removes references that no longer resolve, in one
// month or in all months when month is empty, and returns how many were
// removed.
func (t *Tracker) PruneDanglingReferences(ctx context.Context, month string) (int, error) {
	if month != "" {
		m, err := writeMonth(month)
		if err != nil {
			return 0, classify(err)
		}
		month = m
	}
	var removed int
	err := t.commit(ctx, EventSchedulePruned, map[string]any{"month": month}, func(s *state) error {
		res := t.resolution(s)
		next, n := s.schedule.Prune(month, func(ref schedule.Ref) bool {
			_, ok := res.Lookup(ref)
			return ok
		})
		if n == 0 {
			return errNoChange
		}
		s.schedule = next
		removed = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		slog.Info("dangling schedule references pruned", "month", month, "removed", removed)
	}
	return removed, nil
}

// Plan returns a month's plan text, or "" when unset.
func (t *Tracker) Plan(month string) string {
	var out string
	t.read(func(s *state) { out = s.plans.Get(schedule.NormalizeMonthID(month)) })
	return out
}

// SetPlan replaces a month's plan text. Empty text removes it.
func (t *Tracker) SetPlan(ctx context.Context, month, text string) error {
	m, err := writeMonth(month)
	if err != nil {
		return classify(err)
	}
	return t.commit(ctx, EventPlanUpdated, map[string]any{"month": m, "length": len(text)}, func(s *state) error {
		if s.plans.Get(m) == text {
			return errNoChange
		}
		s.plans = s.plans.Set(m, text)
		return nil
	})
}

// resolution returns the memoized resolution map for s. Callers hold t.mu.
func (t *Tracker) resolution(s *state) progress.Resolution {
	key := progress.MemoKey{CurriculumVersion: s.curriculumVersion, RegisterVersion: s.registerVersion}
	return t.memo.Get(key, s.curriculum, s.register)
}
