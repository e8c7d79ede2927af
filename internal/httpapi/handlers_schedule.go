package httpapi

import (
	"context"
	"net/http"

	"github.com/p-n-ai/medstudy/internal/schedule"
)

type refBody struct {
	Ref schedule.Ref `json:"ref"`
}

func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (a *api) handleMonths(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(a.tr.Months()))
}

func (a *api) handleDay(w http.ResponseWriter, r *http.Request) {
	day, err := pathWeekday(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(a.tr.DayView(r.PathValue("month"), day)))
}

func (a *api) handleSetDay(w http.ResponseWriter, r *http.Request) {
	day, err := pathWeekday(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var body struct {
		Refs []schedule.Ref `json:"refs"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	month := r.PathValue("month")
	if err := a.tr.SetDay(r.Context(), month, day, body.Refs); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(a.tr.Day(month, day)))
}

func (a *api) handleClearDay(w http.ResponseWriter, r *http.Request) {
	day, err := pathWeekday(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if err := a.tr.ClearDay(r.Context(), r.PathValue("month"), day); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleAddToDay(w http.ResponseWriter, r *http.Request) {
	a.changeDay(w, r, a.tr.AddToDay)
}

func (a *api) handleRemoveFromDay(w http.ResponseWriter, r *http.Request) {
	a.changeDay(w, r, a.tr.RemoveFromDay)
}

type dayChange func(ctx context.Context, month string, day schedule.Weekday, ref schedule.Ref) (bool, error)

func (a *api) changeDay(w http.ResponseWriter, r *http.Request, apply dayChange) {
	day, err := pathWeekday(r)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	var body refBody
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	month := r.PathValue("month")
	changed, err := apply(r.Context(), month, day, body.Ref)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"changed": changed, "refs": emptyIfNil(a.tr.Day(month, day))})
}

func (a *api) handleMonthTopics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(a.tr.MonthTopicSet(r.PathValue("month"))))
}

func (a *api) handleRollup(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, emptyIfNil(a.tr.MonthRollup(r.PathValue("month"))))
}

func (a *api) handlePrune(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Month string `json:"month"`
	}
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &body); err != nil {
			writeErr(w, r, err)
			return
		}
	}
	n, err := a.tr.PruneDanglingReferences(r.Context(), body.Month)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (a *api) handlePlan(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"month": r.PathValue("month"), "text": a.tr.Plan(r.PathValue("month"))})
}

func (a *api) handleSetPlan(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	if err := a.tr.SetPlan(r.Context(), r.PathValue("month"), body.Text); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
