// Package tracker owns the study state. Every mutation goes through a
// Tracker method, which builds the next state, persists it through the
// configured snapshot backend and only then makes it visible.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/schedule"
	"github.com/p-n-ai/medstudy/internal/snapshot"
)

// Config wires a Tracker to its collaborators.
type Config struct {
	Backend  snapshot.Backend
	Defaults snapshot.Defaults
	Events   EventLogger
	Now      func() time.Time
}

// Preferences are the user's display and exam-target settings.
type Preferences struct {
	Theme          string `json:"theme"`
	PrimaryColor   string `json:"primaryColor"`
	TargetExamName string `json:"targetExamName"`
	TargetExamDate string `json:"targetExamDate"`
}

type state struct {
	curriculum        curriculum.Curriculum
	curriculumVersion uint64
	register          curriculum.Register
	registerVersion   uint64
	schedule          schedule.Store
	plans             schedule.Plans
	exams             []progress.ExamRecord
	notes             []snapshot.Note
	flashcards        []snapshot.Flashcard
	prefs             Preferences
}

// versions numbers curriculum and register values process-wide; memo keys
// are never reused, even by states that failed to commit.
var versions atomic.Uint64

func (s *state) setCurriculum(c curriculum.Curriculum) {
	s.curriculum = c
	s.curriculumVersion = versions.Add(1)
}

func (s *state) setRegister(r curriculum.Register) {
	s.register = r
	s.registerVersion = versions.Add(1)
}

func fromDocument(doc snapshot.Document) state {
	s := state{
		schedule:   schedule.NewStore(doc.WeeklySchedules),
		plans:      schedule.NewPlans(doc.MonthlyPlans),
		exams:      slices.Clone(doc.Exams),
		notes:      slices.Clone(doc.Notes),
		flashcards: slices.Clone(doc.Flashcards),
		prefs: Preferences{
			Theme:          doc.Theme,
			PrimaryColor:   doc.PrimaryColor,
			TargetExamName: doc.TargetExamName,
			TargetExamDate: doc.TargetExamDate,
		},
	}
	s.setCurriculum(curriculum.New(doc.Areas))
	s.setRegister(curriculum.NewRegister(doc.HotTopics, doc.HotTopicChecks))
	return s
}

func (s state) document() snapshot.Document {
	return snapshot.Document{
		Areas:           s.curriculum.Areas(),
		HotTopics:       s.register.Topics(),
		HotTopicChecks:  s.register.CheckedMap(),
		WeeklySchedules: s.schedule.Export(),
		MonthlyPlans:    s.plans.Export(),
		Exams:           slices.Clone(s.exams),
		Notes:           slices.Clone(s.notes),
		Flashcards:      slices.Clone(s.flashcards),
		Theme:           s.prefs.Theme,
		PrimaryColor:    s.prefs.PrimaryColor,
		TargetExamName:  s.prefs.TargetExamName,
		TargetExamDate:  s.prefs.TargetExamDate,
	}
}

// Tracker is the single owner of the study state. It is safe for concurrent
// use; mutations are serialized and each one is persisted before it becomes
// visible to readers.
type Tracker struct {
	backend  snapshot.Backend
	defaults snapshot.Defaults
	events   EventLogger
	now      func() time.Time

	mu          sync.RWMutex
	st          state
	revision    uint64
	fingerprint string
	memo        progress.Memo

	subMu   sync.Mutex
	subs    map[int]chan uint64
	nextSub int
}

// New loads the stored snapshot (or the defaults when none exists) and
// returns a ready Tracker.
func New(ctx context.Context, cfg Config) (*Tracker, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("snapshot backend is required")
	}
	if cfg.Events == nil {
		cfg.Events = NopEventLogger{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	data, err := cfg.Backend.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading snapshot from %s: %w", cfg.Backend.Name(), err)
	}
	doc, err := snapshot.Decode(data, cfg.Defaults)
	if err != nil {
		return nil, fmt.Errorf("decoding snapshot from %s: %w", cfg.Backend.Name(), err)
	}

	t := &Tracker{
		backend:  cfg.Backend,
		defaults: cfg.Defaults,
		events:   cfg.Events,
		now:      cfg.Now,
		st:       fromDocument(doc),
		subs:     make(map[int]chan uint64),
	}
	encoded, err := snapshot.Encode(t.st.document())
	if err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	t.fingerprint = snapshot.Fingerprint(encoded)

	slog.Info("tracker loaded",
		"backend", cfg.Backend.Name(),
		"stored", data != nil,
		"areas", len(doc.Areas),
		"topics", t.st.curriculum.TopicCount(),
		"hot_topics", t.st.register.Len(),
		"months", len(t.st.schedule.Months()),
	)
	return t, nil
}

// commit applies fn to a copy of the current state, persists the result and
// swaps it in. If fn or the save fails the visible state is unchanged.
// fn must replace, never mutate, the collections it touches.
func (t *Tracker) commit(ctx context.Context, eventType string, data map[string]any, fn func(*state) error) error {
	t.mu.Lock()

	next := t.st
	if err := fn(&next); err != nil {
		t.mu.Unlock()
		if errors.Is(err, errNoChange) {
			return nil
		}
		return classify(err)
	}

	encoded, err := snapshot.Encode(next.document())
	if err != nil {
		t.mu.Unlock()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := t.backend.Save(ctx, encoded); err != nil {
		t.mu.Unlock()
		slog.Error("snapshot persist failed", "backend", t.backend.Name(), "event", eventType, "error", err)
		return fmt.Errorf("persisting snapshot: %w", err)
	}

	t.st = next
	t.revision++
	rev := t.revision
	t.fingerprint = snapshot.Fingerprint(encoded)
	t.mu.Unlock()

	slog.Debug("mutation applied", "event", eventType, "revision", rev)

	if err := t.events.LogEvent(ctx, Event{Type: eventType, Revision: rev, Data: data, CreatedAt: t.now()}); err != nil {
		slog.Warn("event log failed", "event", eventType, "error", err)
	}
	t.notify(rev)
	return nil
}

// read runs fn under the read lock.
func (t *Tracker) read(fn func(s *state)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	fn(&t.st)
}

// Revision counts applied mutations since the Tracker was created.
func (t *Tracker) Revision() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.revision
}

// Fingerprint is a content hash of the current snapshot.
func (t *Tracker) Fingerprint() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fingerprint
}

// Document returns a copy of the full current state.
func (t *Tracker) Document() snapshot.Document {
	var doc snapshot.Document
	t.read(func(s *state) { doc = s.document() })
	return doc
}

// Export serializes the current state as a backup.
func (t *Tracker) Export() ([]byte, error) {
	return snapshot.Encode(t.Document())
}

// Import merges a backup into the current state. Only stores whose key is
// present in data are replaced. A payload that is not valid JSON, or whose
// keys have the wrong shape, returns ErrMalformedImport and changes nothing.
func (t *Tracker) Import(ctx context.Context, data []byte) ([]string, error) {
	var applied []string
	err := t.commit(ctx, EventImported, nil, func(s *state) error {
		merged, keys, err := snapshot.Merge(s.document(), data)
		if err != nil {
			return err
		}
		applied = keys

		*s = fromDocument(merged)
		return nil
	})
	if err != nil {
		slog.Warn("backup import rejected", "error", err)
		return nil, err
	}
	slog.Info("backup imported", "keys", applied)
	return applied, nil
}

// Subscribe returns a channel that receives the revision after every
// mutation, and a function that cancels the subscription. Slow readers miss
// intermediate revisions rather than blocking writers.
func (t *Tracker) Subscribe() (<-chan uint64, func()) {
	ch := make(chan uint64, 8)

	t.subMu.Lock()
	id := t.nextSub
	t.nextSub++
	t.subs[id] = ch
	t.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.subMu.Lock()
			delete(t.subs, id)
			t.subMu.Unlock()
			close(ch)
		})
	}
}

func (t *Tracker) notify(rev uint64) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- rev:
		default:
		}
	}
}

// Ping checks that the snapshot backend is reachable.
func (t *Tracker) Ping(ctx context.Context) error {
	return t.backend.HealthCheck(ctx)
}

// BackendName names the configured snapshot backend.
func (t *Tracker) BackendName() string {
	return t.backend.Name()
}
