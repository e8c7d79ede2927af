package tracker_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/schedule"
	"github.com/p-n-ai/medstudy/internal/snapshot"
	"github.com/p-n-ai/medstudy/internal/tracker"
)

func refNames(ds []progress.Descriptor) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

func TestTracker_AreaProgressScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	for _, id := range []string{"c1", "c2", "c3"} {
		if err := f.tr.SetStatus(ctx, "cardio", id, curriculum.StatusCompleted); err != nil {
			t.Fatalf("SetStatus(%s) error = %v", id, err)
		}
	}
	got, err := f.tr.AreaProgress("cardio")
	if err != nil {
		t.Fatalf("AreaProgress() error = %v", err)
	}
	if got.Completed != 3 || got.Total != 4 || got.Percent != 75 {
		t.Errorf("AreaProgress(cardio) = %+v, want 3/4 75%%", got)
	}
}

func TestTracker_HotProgressScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	for _, id := range []string{"h0", "h2", "h4", "h6"} {
		if _, err := f.tr.ToggleHotTopic(ctx, id); err != nil {
			t.Fatalf("ToggleHotTopic(%s) error = %v", id, err)
		}
	}
	got := f.tr.HotProgress()
	if got.Completed != 4 || got.Total != 10 || got.Percent != 40 {
		t.Errorf("HotProgress() = %+v, want 4/10 40%%", got)
	}
	global := f.tr.GlobalProgress()
	if global.Completed != 4 || global.Total != 14 {
		t.Errorf("GlobalProgress() = %+v, want 4/14", global)
	}
}

func TestTracker_ToggleReviewed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if err := f.tr.SetStatus(ctx, "cardio", "c1", curriculum.StatusReviewed); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	for _, want := range []curriculum.Status{curriculum.StatusCompleted, curriculum.StatusNotStarted} {
		got, err := f.tr.ToggleTopic(ctx, "c1")
		if err != nil {
			t.Fatalf("ToggleTopic() error = %v", err)
		}
		if got != want {
			t.Errorf("ToggleTopic() = %s, want %s", got, want)
		}
	}
}

func TestTracker_SetDayIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	refs := []schedule.Ref{schedule.Curriculum("c1"), schedule.Hot("h2")}

	if err := f.tr.SetDay(ctx, "2026-03", schedule.Monday, refs); err != nil {
		t.Fatalf("SetDay() error = %v", err)
	}
	once := f.tr.Fingerprint()
	if err := f.tr.SetDay(ctx, "2026-03", schedule.Monday, refs); err != nil {
		t.Fatalf("SetDay() error = %v", err)
	}
	if f.tr.Fingerprint() != once {
		t.Error("second identical SetDay changed the snapshot")
	}

	got := f.tr.MonthTopicSet("2026-03")
	if !slices.Equal(got, refs) {
		t.Errorf("MonthTopicSet() = %v, want %v", got, refs)
	}
	if got := f.tr.Day("2026-03", schedule.Tuesday); got == nil || len(got) != 0 {
		t.Errorf("Day(empty) = %#v, want empty non-nil", got)
	}
}

func TestTracker_AddToDayNoDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	ref := schedule.Curriculum("c2")

	for i := range 3 {
		added, err := f.tr.AddToDay(ctx, "Março 2026", schedule.Friday, ref)
		if err != nil {
			t.Fatalf("AddToDay() error = %v", err)
		}
		if added != (i == 0) {
			t.Errorf("AddToDay() call %d = %v", i, added)
		}
	}
	if got := f.tr.Day("2026-03", schedule.Friday); len(got) != 1 {
		t.Errorf("Day() = %v, want one ref", got)
	}
	if f.backend.Saves() != 1 {
		t.Errorf("Saves() = %d, want 1", f.backend.Saves())
	}

	removed, err := f.tr.RemoveFromDay(ctx, "2026-03", schedule.Friday, ref)
	if err != nil || !removed {
		t.Fatalf("RemoveFromDay() = %v, %v", removed, err)
	}
	if _, err := f.tr.AddToDay(ctx, "2026-03", schedule.Friday, schedule.Ref{}); !errors.Is(err, tracker.ErrValidation) {
		t.Errorf("AddToDay(zero ref) error = %v, want ErrValidation", err)
	}
}

func TestTracker_DanglingReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	refs := []schedule.Ref{schedule.Curriculum("c1"), schedule.Curriculum("c2"), schedule.Hot("h1")}
	if err := f.tr.SetDay(ctx, "2026-03", schedule.Wednesday, refs); err != nil {
		t.Fatalf("SetDay() error = %v", err)
	}
	if err := f.tr.SetDay(ctx, "2026-04", schedule.Monday, refs[:1]); err != nil {
		t.Fatalf("SetDay() error = %v", err)
	}
	if err := f.tr.DeleteTopic(ctx, "cardio", "c1"); err != nil {
		t.Fatalf("DeleteTopic() error = %v", err)
	}
	if err := f.tr.DeleteHotTopic(ctx, "h1"); err != nil {
		t.Fatalf("DeleteHotTopic() error = %v", err)
	}

	if got := refNames(f.tr.MonthRollup("2026-03")); !slices.Equal(got, []string{"IC"}) {
		t.Errorf("MonthRollup() = %v, want [IC]", got)
	}
	if got := f.tr.DayView("2026-03", schedule.Wednesday); len(got) != 1 {
		t.Errorf("DayView() = %v, want one descriptor", got)
	}
	// Deletion does not prune.
	if got := f.tr.Day("2026-03", schedule.Wednesday); len(got) != 3 {
		t.Errorf("Day() = %v, want the 3 stored refs", got)
	}

	n, err := f.tr.PruneDanglingReferences(ctx, "2026-03")
	if err != nil {
		t.Fatalf("PruneDanglingReferences() error = %v", err)
	}
	if n != 2 {
		t.Errorf("pruned %d, want 2", n)
	}
	if got := f.tr.Day("2026-04", schedule.Monday); len(got) != 1 {
		t.Errorf("other month pruned: %v", got)
	}

	n, err = f.tr.PruneDanglingReferences(ctx, "")
	if err != nil || n != 1 {
		t.Errorf("PruneDanglingReferences(all) = %d, %v; want 1", n, err)
	}
	if got := f.tr.ScheduledMonths(); !slices.Equal(got, []string{"2026-03"}) {
		t.Errorf("ScheduledMonths() = %v, want [2026-03]", got)
	}
}

func TestTracker_MonthsIncludePlanOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if err := f.tr.SetDay(ctx, "2026-03", schedule.Monday, []schedule.Ref{schedule.Curriculum("c1")}); err != nil {
		t.Fatalf("SetDay() error = %v", err)
	}
	if err := f.tr.SetPlan(ctx, "2026-03", "cardio"); err != nil {
		t.Fatalf("SetPlan() error = %v", err)
	}
	if err := f.tr.SetPlan(ctx, "2026-01", "revisar pediatria"); err != nil {
		t.Fatalf("SetPlan() error = %v", err)
	}

	if got, want := f.tr.Months(), []string{"2026-01", "2026-03"}; !slices.Equal(got, want) {
		t.Errorf("Months() = %v, want %v", got, want)
	}
	if got := f.tr.ScheduledMonths(); !slices.Equal(got, []string{"2026-03"}) {
		t.Errorf("ScheduledMonths() = %v, want [2026-03]", got)
	}
}

func TestTracker_HotTopicRenameKeepsCheck(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, err := f.tr.ToggleHotTopic(ctx, "h5"); err != nil {
		t.Fatalf("ToggleHotTopic() error = %v", err)
	}
	name := "Meningite Bacteriana"
	if _, err := f.tr.UpdateHotTopic(ctx, "h5", curriculum.HotTopicPatch{Name: &name}); err != nil {
		t.Fatalf("UpdateHotTopic() error = %v", err)
	}
	d, ok := f.tr.Resolve(schedule.Hot("h5"))
	if !ok {
		t.Fatal("Resolve(h5) not found")
	}
	if d.Name != name || d.Status != curriculum.StatusCompleted || d.Color != "blue" {
		t.Errorf("Resolve(h5) = %+v", d)
	}
}

func TestTracker_AddAndResetHotTopics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	added, err := f.tr.AddHotTopic(ctx, curriculum.HotTopic{Name: "Dengue", Category: "Medicina Preventiva"})
	if err != nil {
		t.Fatalf("AddHotTopic() error = %v", err)
	}
	if added.ID == "" {
		t.Error("AddHotTopic() should assign an id")
	}
	if _, err := f.tr.ToggleHotTopic(ctx, "h0"); err != nil {
		t.Fatalf("ToggleHotTopic() error = %v", err)
	}
	if len(f.tr.HotTopics()) != 11 {
		t.Fatalf("HotTopics() len = %d, want 11", len(f.tr.HotTopics()))
	}

	if err := f.tr.ResetHotTopics(ctx); err != nil {
		t.Fatalf("ResetHotTopics() error = %v", err)
	}
	hot := f.tr.HotTopics()
	if len(hot) != 10 {
		t.Errorf("after reset len = %d, want 10", len(hot))
	}
	if !hot[0].Checked {
		t.Error("seed entry check should survive reset")
	}
}

func TestTracker_Plans(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if got := f.tr.Plan("2026-05"); got != "" {
		t.Errorf("Plan(unset) = %q, want empty", got)
	}
	if err := f.tr.SetPlan(ctx, "Maio 2026", "Pediatria + preventiva"); err != nil {
		t.Fatalf("SetPlan() error = %v", err)
	}
	if got := f.tr.Plan("2026-05"); got != "Pediatria + preventiva" {
		t.Errorf("Plan() = %q", got)
	}
	if err := f.tr.SetPlan(ctx, "não é mês", "x"); !errors.Is(err, tracker.ErrValidation) {
		t.Errorf("SetPlan(bad month) error = %v, want ErrValidation", err)
	}
}

func TestTracker_ImportMergesPresentKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if err := f.tr.ReplaceNotes(ctx, []snapshot.Note{{Title: "Cardio", Content: "IECA"}}); err != nil {
		t.Fatalf("ReplaceNotes() error = %v", err)
	}
	backup := []byte(`{
		"exams": [{"id":"e1","name":"Simulado 1","date":"2026-02-01","totalQuestions":100,"correctAnswers":70}],
		"theme": "dark"
	}`)
	keys, err := f.tr.Import(ctx, backup)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if !slices.Contains(keys, snapshot.KeyExams) || !slices.Contains(keys, snapshot.KeyTheme) {
		t.Errorf("Import() keys = %v", keys)
	}
	if notes := f.tr.Notes(); len(notes) != 1 || notes[0].Title != "Cardio" {
		t.Errorf("notes after import = %+v, want untouched", notes)
	}
	if got := f.tr.Preferences().Theme; got != "dark" {
		t.Errorf("theme = %q, want dark", got)
	}
	if got := f.tr.ExamAverage(); got != 70 {
		t.Errorf("ExamAverage() = %d, want 70", got)
	}
}

func TestTracker_ImportRejectsMalformed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	before := f.tr.Fingerprint()

	for _, payload := range []string{`not json`, `[1]`, `{"exams": "lots"}`} {
		if _, err := f.tr.Import(ctx, []byte(payload)); !errors.Is(err, tracker.ErrMalformedImport) {
			t.Errorf("Import(%s) error = %v, want ErrMalformedImport", payload, err)
		}
	}
	if f.tr.Fingerprint() != before || f.backend.Saves() != 0 {
		t.Error("rejected import changed state")
	}
}

func TestTracker_ImportInvalidatesResolution(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	if _, ok := f.tr.Resolve(schedule.Curriculum("c1")); !ok {
		t.Fatal("c1 should resolve before import")
	}
	backup := []byte(`{"areas":[{"id":"cardio","name":"Cardiologia","color":"red","topics":[{"id":"n1","name":"Valvopatias","status":"COMPLETED"}]}]}`)
	if _, err := f.tr.Import(ctx, backup); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if _, ok := f.tr.Resolve(schedule.Curriculum("c1")); ok {
		t.Error("c1 should not resolve after import replaced the areas")
	}
	if d, ok := f.tr.Resolve(schedule.Curriculum("n1")); !ok || d.Status != curriculum.StatusCompleted {
		t.Errorf("Resolve(n1) = %+v, %v", d, ok)
	}
}

func TestTracker_ExamsAndPreferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	e, err := f.tr.SaveExam(ctx, progress.ExamRecord{Name: "Simulado", Date: "2026-03-01", TotalQuestions: 120, CorrectAnswers: 90})
	if err != nil {
		t.Fatalf("SaveExam() error = %v", err)
	}
	e.CorrectAnswers = 96
	if _, err := f.tr.SaveExam(ctx, e); err != nil {
		t.Fatalf("SaveExam(update) error = %v", err)
	}
	if got := f.tr.Exams(); len(got) != 1 || got[0].Percent() != 80 {
		t.Errorf("Exams() = %+v", got)
	}
	if _, err := f.tr.SaveExam(ctx, progress.ExamRecord{Name: "X", TotalQuestions: 10, CorrectAnswers: 11}); !errors.Is(err, tracker.ErrValidation) {
		t.Errorf("SaveExam(correct > total) error = %v, want ErrValidation", err)
	}
	if _, err := f.tr.SaveExam(ctx, progress.ExamRecord{ID: "ghost", Name: "X", TotalQuestions: 10}); !errors.Is(err, tracker.ErrNotFound) {
		t.Errorf("SaveExam(unknown id) error = %v, want ErrNotFound", err)
	}
	if err := f.tr.DeleteExam(ctx, e.ID); err != nil {
		t.Fatalf("DeleteExam() error = %v", err)
	}
	if got := f.tr.ExamAverage(); got != 0 {
		t.Errorf("ExamAverage() with no exams = %d, want 0", got)
	}

	if _, ok := f.tr.DaysUntilExam(); ok {
		t.Error("DaysUntilExam() without date should report false")
	}
	prefs := f.tr.Preferences()
	prefs.TargetExamDate = "2026-03-20"
	if err := f.tr.SetPreferences(ctx, prefs); err != nil {
		t.Fatalf("SetPreferences() error = %v", err)
	}
	if days, ok := f.tr.DaysUntilExam(); !ok || days != 10 {
		t.Errorf("DaysUntilExam() = %d, %v; want 10", days, ok)
	}
}

func TestTracker_Flashcards(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	cards := []snapshot.Flashcard{{AreaID: "cardio", Front: "1ª linha na HAS?", Back: "IECA/BRA, tiazídico, BCC"}}
	if err := f.tr.ReplaceFlashcards(ctx, cards); err != nil {
		t.Fatalf("ReplaceFlashcards() error = %v", err)
	}
	got := f.tr.Flashcards()
	if len(got) != 1 || got[0].ID == "" {
		t.Errorf("Flashcards() = %+v", got)
	}
	if err := f.tr.ReplaceFlashcards(ctx, []snapshot.Flashcard{{Back: "sem frente"}}); !errors.Is(err, tracker.ErrValidation) {
		t.Errorf("ReplaceFlashcards(no front) error = %v, want ErrValidation", err)
	}
}

func TestTracker_SearchTopics(t *testing.T) {
	f := newFixture(t, nil)

	got := f.tr.SearchTopics("arritmias")
	if len(got) != 1 || got[0].ID != "c4" {
		t.Errorf("SearchTopics(arritmias) = %+v", got)
	}
	if got := f.tr.SearchTopics("hot"); len(got) != 10 {
		t.Errorf("SearchTopics(hot) = %d matches, want 10", len(got))
	}
}

func TestTracker_LegacySnapshot(t *testing.T) {
	legacy := []byte(`{
		"hotTopicChecks": {"Hot 2": true},
		"weeklySchedules": {"Março 2026": {"0": ["c1", "hot_2"]}}
	}`)
	f := newFixture(t, legacy)

	want := []schedule.Ref{schedule.Curriculum("c1"), schedule.Hot("h2")}
	if got := f.tr.MonthTopicSet("2026-03"); !slices.Equal(got, want) {
		t.Errorf("MonthTopicSet() = %v, want %v", got, want)
	}
	if got := f.tr.HotProgress().Completed; got != 1 {
		t.Errorf("hot completed = %d, want 1", got)
	}
}
