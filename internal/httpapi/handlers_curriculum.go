package httpapi

import (
	"fmt"
	"net/http"

	"github.com/p-n-ai/medstudy/internal/curriculum"
	"github.com/p-n-ai/medstudy/internal/progress"
	"github.com/p-n-ai/medstudy/internal/schedule"
	"github.com/p-n-ai/medstudy/internal/tracker"
)

type progressResponse struct {
	progress.Dashboard
	ExamAverage   int    `json:"examAverage"`
	DaysUntilExam *int   `json:"daysUntilExam,omitempty"`
	Revision      uint64 `json:"revision"`
}

func (a *api) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	etag := `"` + a.tr.Fingerprint() + `"`
	w.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, a.tr.Document())
}

func (a *api) handleProgress(w http.ResponseWriter, _ *http.Request) {
	resp := progressResponse{
		Dashboard:   a.tr.Dashboard(),
		ExamAverage: a.tr.ExamAverage(),
		Revision:    a.tr.Revision(),
	}
	if days, ok := a.tr.DaysUntilExam(); ok {
		resp.DaysUntilExam = &days
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) handleSearch(w http.ResponseWriter, r *http.Request) {
	matches := a.tr.SearchTopics(r.URL.Query().Get("q"))
	if matches == nil {
		matches = []curriculum.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (a *api) handleAreas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.tr.Areas())
}

func (a *api) handleArea(w http.ResponseWriter, r *http.Request) {
	area, err := a.tr.Area(r.PathValue("areaID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, area)
}

func (a *api) handleAreaProgress(w http.ResponseWriter, r *http.Request) {
	p, err := a.tr.AreaProgress(r.PathValue("areaID"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (a *api) handleAreaSummary(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Summary string `json:"summary"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := a.tr.SetAreaSummary(r.Context(), r.PathValue("areaID"), body.Summary); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleAddTopic(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		SubArea string `json:"subArea"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	topic, err := a.tr.AddTopic(r.Context(), r.PathValue("areaID"), body.Name, body.SubArea)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, topic)
}

func (a *api) handleUpdateTopic(w http.ResponseWriter, r *http.Request) {
	var patch tracker.TopicPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := a.tr.UpdateTopic(r.Context(), r.PathValue("areaID"), r.PathValue("topicID"), patch); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleDeleteTopic(w http.ResponseWriter, r *http.Request) {
	if err := a.tr.DeleteTopic(r.Context(), r.PathValue("areaID"), r.PathValue("topicID")); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleAddSubTopic(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := a.tr.AddSubTopic(r.Context(), r.PathValue("areaID"), r.PathValue("topicID"), body.Text); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleRemoveSubTopic(w http.ResponseWriter, r *http.Request) {
	index, err := pathInt(r, "index")
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := a.tr.RemoveSubTopic(r.Context(), r.PathValue("areaID"), r.PathValue("topicID"), index); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleRenameSubArea(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	n, err := a.tr.RenameSubArea(r.Context(), r.PathValue("areaID"), r.PathValue("name"), body.Name)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"renamed": n})
}

func (a *api) handleDeleteSubArea(w http.ResponseWriter, r *http.Request) {
	removed, err := a.tr.DeleteSubArea(r.Context(), r.PathValue("areaID"), r.PathValue("name"))
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"removed": removed})
}

// handleToggle flips a curriculum topic or a hot topic, depending on the ref.
func (a *api) handleToggle(w http.ResponseWriter, r *http.Request) {
	ref, err := schedule.ParseRef(r.PathValue("ref"))
	if err != nil {
		writeErr(w, r, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if ref.IsHot() {
		checked, err := a.tr.ToggleHotTopic(r.Context(), ref.ID)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ref": ref, "checked": checked})
		return
	}
	status, err := a.tr.ToggleTopic(r.Context(), ref.ID)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ref": ref, "status": status})
}

func (a *api) handleHotTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.tr.HotTopics())
}

func (a *api) handleAddHotTopic(w http.ResponseWriter, r *http.Request) {
	var body curriculum.HotTopic
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	h, err := a.tr.AddHotTopic(r.Context(), body)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (a *api) handleUpdateHotTopic(w http.ResponseWriter, r *http.Request) {
	var patch curriculum.HotTopicPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeErr(w, r, err)
		return
	}
	h, err := a.tr.UpdateHotTopic(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

func (a *api) handleDeleteHotTopic(w http.ResponseWriter, r *http.Request) {
	if err := a.tr.DeleteHotTopic(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleResetHotTopics(w http.ResponseWriter, r *http.Request) {
	if err := a.tr.ResetHotTopics(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a.tr.HotTopics())
}
