package httpapi

import (
	"net/http"

	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/snapshot"
	"github.com/p-n-ai/medstudy/internal/tracker"
)

type examView struct {
	progress.ExamRecord
	Percent int    `json:"percent"`
	Band    string `json:"band"`
}

func (a *api) handleExams(w http.ResponseWriter, _ *http.Request) {
	exams := a.tr.Exams()
	out := make([]examView, 0, len(exams))
	for _, e := range exams {
		out = append(out, examView{ExamRecord: e, Percent: e.Percent(), Band: e.Band()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"exams": out, "average": a.tr.ExamAverage()})
}

// handleSaveExam creates an exam on POST and replaces one on PUT.
func (a *api) handleSaveExam(w http.ResponseWriter, r *http.Request) {
	var e progress.ExamRecord
	if err := decodeJSON(w, r, &e); err != nil {
		writeErr(w, r, err)
		return
	}
	status := http.StatusCreated
	e.ID = ""
	if id := r.PathValue("id"); id != "" {
		e.ID = id
		status = http.StatusOK
	}
	saved, err := a.tr.SaveExam(r.Context(), e)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, status, examView{ExamRecord: saved, Percent: saved.Percent(), Band: saved.Band()})
}

func (a *api) handleDeleteExam(w http.ResponseWriter, r *http.Request) {
	if err := a.tr.DeleteExam(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleNotes(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(a.tr.Notes()))
}

func (a *api) handleReplaceNotes(w http.ResponseWriter, r *http.Request) {
	var notes []snapshot.Note
	if err := decodeJSON(w, r, &notes); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := a.tr.ReplaceNotes(r.Context(), notes); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(a.tr.Notes()))
}

func (a *api) handleFlashcards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(a.tr.Flashcards()))
}

func (a *api) handleReplaceFlashcards(w http.ResponseWriter, r *http.Request) {
	var cards []snapshot.Flashcard
	if err := decodeJSON(w, r, &cards); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := a.tr.ReplaceFlashcards(r.Context(), cards); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(a.tr.Flashcards()))
}

type preferencesResponse struct {
	tracker.Preferences
	DaysUntilExam *int `json:"daysUntilExam,omitempty"`
}

func (a *api) preferences() preferencesResponse {
	resp := preferencesResponse{Preferences: a.tr.Preferences()}
	if days, ok := a.tr.DaysUntilExam(); ok {
		resp.DaysUntilExam = &days
	}
	return resp
}

func (a *api) handlePreferences(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.preferences())
}

func (a *api) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var p tracker.Preferences
	if err := decodeJSON(w, r, &p); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := a.tr.SetPreferences(r.Context(), p); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.preferences())
}
