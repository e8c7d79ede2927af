package tracker

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/snapshot"
)

// Exams returns the exam records in insertion order.
func (t *Tracker) Exams() []progress.ExamRecord {
	var out []progress.ExamRecord
	t.read(func(s *state) { out = slices.Clone(s.exams) })
	return out
}

// SaveExam adds a record, or replaces the record with the same id. A record
// without an id is new and gets one.
func (t *Tracker) SaveExam(ctx context.Context, e progress.ExamRecord) (progress.ExamRecord, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return progress.ExamRecord{}, classify(err)
	}
	if e.Date != "" {
		if _, err := time.Parse(time.DateOnly, e.Date); err != nil {
			return progress.ExamRecord{}, classify(fmt.Errorf("%w: %q", errInvalidDate, e.Date))
		}
	}

	err := t.commit(ctx, EventExamSaved, map[string]any{"exam_id": e.ID, "name": e.Name}, func(s *state) error {
		if e.ID == "" {
			e.ID = uuid.NewString()
			s.exams = append(slices.Clone(s.exams), e)
			return nil
		}
		i := slices.IndexFunc(s.exams, func(x progress.ExamRecord) bool { return x.ID == e.ID })
		if i < 0 {
			return fmt.Errorf("%w: %s", errExamNotFound, e.ID)
		}
		exams := slices.Clone(s.exams)
		exams[i] = e
		s.exams = exams
		return nil
	})
	if err != nil {
		return progress.ExamRecord{}, err
	}
	return e, nil
}

// DeleteExam removes an exam record.
func (t *Tracker) DeleteExam(ctx context.Context, id string) error {
	return t.commit(ctx, EventExamDeleted, map[string]any{"exam_id": id}, func(s *state) error {
		i := slices.IndexFunc(s.exams, func(x progress.ExamRecord) bool { return x.ID == id })
		if i < 0 {
			return fmt.Errorf("%w: %s", errExamNotFound, id)
		}
		s.exams = slices.Delete(slices.Clone(s.exams), i, i+1)
		return nil
	})
}

// Notes returns the study notes in order.
func (t *Tracker) Notes() []snapshot.Note {
	var out []snapshot.Note
	t.read(func(s *state) { out = slices.Clone(s.notes) })
	return out
}

// ReplaceNotes swaps the whole note list. Notes without an id get one and
// notes without a timestamp are stamped now.
func (t *Tracker) ReplaceNotes(ctx context.Context, notes []snapshot.Note) error {
	now := t.now().UTC().Format(time.RFC3339)
	next := make([]snapshot.Note, len(notes))
	for i, n := range notes {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.UpdatedAt == "" {
			n.UpdatedAt = now
		}
		next[i] = n
	}
	return t.commit(ctx, EventNotesReplaced, map[string]any{"count": len(next)}, func(s *state) error {
		s.notes = next
		return nil
	})
}

// Flashcards returns the flashcards in order.
func (t *Tracker) Flashcards() []snapshot.Flashcard {
	var out []snapshot.Flashcard
	t.read(func(s *state) { out = slices.Clone(s.flashcards) })
	return out
}

// ReplaceFlashcards swaps the whole flashcard deck. Cards need a front side;
// cards without an id get one.
func (t *Tracker) ReplaceFlashcards(ctx context.Context, cards []snapshot.Flashcard) error {
	next := make([]snapshot.Flashcard, len(cards))
	for i, c := range cards {
		if strings.TrimSpace(c.Front) == "" {
			return fmt.Errorf("%w: flashcard %d has no front", ErrValidation, i)
		}
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		next[i] = c
	}
	return t.commit(ctx, EventFlashcardsReplaced, map[string]any{"count": len(next)}, func(s *state) error {
		s.flashcards = next
		return nil
	})
}

// Preferences returns the display and exam-target settings.
func (t *Tracker) Preferences() Preferences {
	var out Preferences
	t.read(func(s *state) { out = s.prefs })
	return out
}

// SetPreferences replaces the settings. The exam date, when set, must be
// YYYY-MM-DD.
func (t *Tracker) SetPreferences(ctx context.Context, p Preferences) error {
	if p.TargetExamDate != "" {
		if _, err := time.Parse(time.DateOnly, p.TargetExamDate); err != nil {
			return classify(fmt.Errorf("%w: %q", errInvalidDate, p.TargetExamDate))
		}
	}
	if p.Theme != "" && p.Theme != "light" && p.Theme != "dark" {
		return fmt.Errorf("%w: theme must be light or dark", ErrValidation)
	}
	return t.commit(ctx, EventPreferencesSet, map[string]any{"theme": p.Theme}, func(s *state) error {
		if s.prefs == p {
			return errNoChange
		}
		s.prefs = p
		return nil
	})
}
