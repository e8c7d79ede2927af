package schedule

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Weekday indexes a day of the study week, 0=Monday through 6=Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DaysPerWeek is the number of weekday slots per month.
const DaysPerWeek = 7

var ErrInvalidWeekday = errors.New("weekday must be between 0 (Monday) and 6 (Sunday)")

// Valid reports whether d is a known weekday index.
func (d Weekday) Valid() bool { return d >= Monday && d <= Sunday }

// Week maps weekdays to their ordered topic references.
type Week map[Weekday][]Ref

// Store is an immutable set of weekly schedules keyed by month ID. Mutators
// return a new Store.
type Store struct {
	months map[string]Week
}

// NewStore builds a Store from a deep copy of months. Each day list is
// de-duplicated and empty days are dropped.
func NewStore(months map[string]Week) Store {
	s := Store{months: make(map[string]Week, len(months))}
	for month, week := range months {
		for day, refs := range week {
			if !day.Valid() {
				continue
			}
			s.setDay(month, day, dedupe(refs))
		}
	}
	return s
}

// SetDay replaces one day's list. Duplicate refs keep their first position.
// An empty list removes the day.
func (s Store) SetDay(month string, day Weekday, refs []Ref) (Store, error) {
	if !day.Valid() {
		return s, fmt.Errorf("%w: %d", ErrInvalidWeekday, day)
	}
	next := s.clone()
	next.setDay(month, day, dedupe(refs))
	return next, nil
}

// Day returns a copy of one day's list; never nil.
func (s Store) Day(month string, day Weekday) []Ref {
	refs := s.months[month][day]
	out := make([]Ref, len(refs))
	copy(out, refs)
	return out
}

// ClearDay is SetDay with an empty list.
func (s Store) ClearDay(month string, day Weekday) (Store, error) {
	return s.SetDay(month, day, nil)
}

// AddToDay appends ref to a day unless it is already present. The bool
// reports whether the list changed.
func (s Store) AddToDay(month string, day Weekday, ref Ref) (Store, bool, error) {
	if !day.Valid() {
		return s, false, fmt.Errorf("%w: %d", ErrInvalidWeekday, day)
	}
	current := s.months[month][day]
	if slices.Contains(current, ref) {
		return s, false, nil
	}
	next, err := s.SetDay(month, day, append(slices.Clone(current), ref))
	return next, err == nil, err
}

// RemoveFromDay drops ref from a day. The bool reports whether it was there.
func (s Store) RemoveFromDay(month string, day Weekday, ref Ref) (Store, bool, error) {
	if !day.Valid() {
		return s, false, fmt.Errorf("%w: %d", ErrInvalidWeekday, day)
	}
	current := s.months[month][day]
	i := slices.Index(current, ref)
	if i < 0 {
		return s, false, nil
	}
	next, err := s.SetDay(month, day, slices.Delete(slices.Clone(current), i, i+1))
	return next, err == nil, err
}

// MonthTopicSet returns the de-duplicated union of every day in a month,
// walked Monday first and in list order within a day.
func (s Store) MonthTopicSet(month string) []Ref {
	week := s.months[month]
	seen := make(map[Ref]bool)
	var out []Ref
	for day := Monday; day <= Sunday; day++ {
		for _, ref := range week[day] {
			if !seen[ref] {
				seen[ref] = true
				out = append(out, ref)
			}
		}
	}
	return out
}

// Months returns the month IDs that have at least one scheduled day, sorted.
func (s Store) Months() []string {
	out := make([]string, 0, len(s.months))
	for m := range s.months {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Prune removes every ref for which keep returns false, in one month or in
// all months when month is empty. It returns the number of refs removed.
func (s Store) Prune(month string, keep func(Ref) bool) (Store, int) {
	next := s.clone()
	removed := 0
	for m, week := range s.months {
		if month != "" && m != month {
			continue
		}
		for day, refs := range week {
			kept := make([]Ref, 0, len(refs))
			for _, ref := range refs {
				if keep(ref) {
					kept = append(kept, ref)
				}
			}
			if len(kept) != len(refs) {
				removed += len(refs) - len(kept)
				next.setDay(m, day, kept)
			}
		}
	}
	if removed == 0 {
		return s, 0
	}
	return next, removed
}

// Export returns a deep copy of the schedules for persistence.
func (s Store) Export() map[string]Week {
	return s.clone().months
}

func (s *Store) setDay(month string, day Weekday, refs []Ref) {
	if len(refs) == 0 {
		week := s.months[month]
		if week == nil {
			return
		}
		delete(week, day)
		if len(week) == 0 {
			delete(s.months, month)
		}
		return
	}
	week := s.months[month]
	if week == nil {
		week = make(Week)
		s.months[month] = week
	}
	week[day] = refs
}

func (s Store) clone() Store {
	out := Store{months: make(map[string]Week, len(s.months))}
	for m, week := range s.months {
		w := make(Week, len(week))
		for d, refs := range week {
			w[d] = slices.Clone(refs)
		}
		out.months[m] = w
	}
	return out
}

func dedupe(refs []Ref) []Ref {
	out := make([]Ref, 0, len(refs))
	seen := make(map[Ref]bool, len(refs))
	for _, ref := range refs {
		if ref.ID == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		out = append(out, ref)
	}
	return out
}
