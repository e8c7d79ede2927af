package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/p-n-ai/medstudy/internal/report"
)

func (a *api) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := a.tr.Export()
	if err != nil {
		writeErr(w, r, err)
		return
	}
	name := fmt.Sprintf("medstudy-backup-%s.json", a.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *api) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "too_large", "backup exceeds size limit")
			return
		}
		writeErr(w, r, fmt.Errorf("%w: reading body: %w", errBadRequest, err))
		return
	}
	keys, err := a.tr.Import(r.Context(), data)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"applied": keys, "revision": a.tr.Revision()})
}

func (a *api) handleReport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, report.Collect(a.tr, a.now())); err != nil {
		writeErr(w, r, err)
		return
	}
	name := fmt.Sprintf("medstudy-%s.xlsx", a.now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (a *api) handleTips(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Topic string `json:"topic"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	reply, err := a.mentor.StudyTips(r.Context(), body.Topic)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (a *api) handleAsk(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question string `json:"question"`
		Context  string `json:"context"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeErr(w, r, err)
		return
	}
	reply, err := a.mentor.Ask(r.Context(), body.Question, body.Context)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}
