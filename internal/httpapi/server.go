// Package httpapi serves the study tracker as a local JSON API with a
// WebSocket change feed.
package httpapi

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/medstudy/internal/mentor"
	"github.com/p-n-ai/medstudy/internal/tracker"
)

// Config wires the API.
type Config struct {
	Tracker *tracker.Tracker
	Mentor  *mentor.Service // nil: mentor endpoints always degrade
	Now     func() time.Time
}

type api struct {
	tr     *tracker.Tracker
	mentor *mentor.Service
	now    func() time.Time
}

// NewHandler builds the router with its middleware chain.
func NewHandler(cfg Config) http.Handler {
	a := &api{tr: cfg.Tracker, mentor: cfg.Mentor, now: cfg.Now}
	if a.mentor == nil {
		a.mentor = mentor.New(mentor.Config{})
	}
	if a.now == nil {
		a.now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)
	a.register(mux)

	var h http.Handler = mux
	h = recoverMiddleware(h)
	h = accessLogMiddleware(h)
	h = requestIDMiddleware(h)
	return h
}

func (a *api) register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshot", a.handleSnapshot)
	mux.HandleFunc("GET /api/progress", a.handleProgress)
	mux.HandleFunc("GET /api/search", a.handleSearch)

	mux.HandleFunc("GET /api/areas", a.handleAreas)
	mux.HandleFunc("GET /api/areas/{areaID}", a.handleArea)
	mux.HandleFunc("GET /api/areas/{areaID}/progress", a.handleAreaProgress)
	mux.HandleFunc("PUT /api/areas/{areaID}/summary", a.handleAreaSummary)
	mux.HandleFunc("POST /api/areas/{areaID}/topics", a.handleAddTopic)
	mux.HandleFunc("PATCH /api/areas/{areaID}/topics/{topicID}", a.handleUpdateTopic)
	mux.HandleFunc("DELETE /api/areas/{areaID}/topics/{topicID}", a.handleDeleteTopic)
	mux.HandleFunc("POST /api/areas/{areaID}/topics/{topicID}/subtopics", a.handleAddSubTopic)
	mux.HandleFunc("DELETE /api/areas/{areaID}/topics/{topicID}/subtopics/{index}", a.handleRemoveSubTopic)
	mux.HandleFunc("PUT /api/areas/{areaID}/subareas/{name}", a.handleRenameSubArea)
	mux.HandleFunc("DELETE /api/areas/{areaID}/subareas/{name}", a.handleDeleteSubArea)
	mux.HandleFunc("POST /api/topics/{ref}/toggle", a.handleToggle)

	mux.HandleFunc("GET /api/hot-topics", a.handleHotTopics)
	mux.HandleFunc("POST /api/hot-topics", a.handleAddHotTopic)
	mux.HandleFunc("POST /api/hot-topics/reset", a.handleResetHotTopics)
	mux.HandleFunc("PATCH /api/hot-topics/{id}", a.handleUpdateHotTopic)
	mux.HandleFunc("DELETE /api/hot-topics/{id}", a.handleDeleteHotTopic)

	mux.HandleFunc("GET /api/schedule", a.handleMonths)
	mux.HandleFunc("POST /api/schedule/prune", a.handlePrune)
	mux.HandleFunc("GET /api/schedule/{month}/rollup", a.handleRollup)
	mux.HandleFunc("GET /api/schedule/{month}/topics", a.handleMonthTopics)
	mux.HandleFunc("GET /api/schedule/{month}/{weekday}", a.handleDay)
	mux.HandleFunc("PUT /api/schedule/{month}/{weekday}", a.handleSetDay)
	mux.HandleFunc("DELETE /api/schedule/{month}/{weekday}", a.handleClearDay)
	mux.HandleFunc("POST /api/schedule/{month}/{weekday}/add", a.handleAddToDay)
	mux.HandleFunc("POST /api/schedule/{month}/{weekday}/remove", a.handleRemoveFromDay)
	mux.HandleFunc("GET /api/plans/{month}", a.handlePlan)
	mux.HandleFunc("PUT /api/plans/{month}", a.handleSetPlan)

	mux.HandleFunc("GET /api/exams", a.handleExams)
	mux.HandleFunc("POST /api/exams", a.handleSaveExam)
	mux.HandleFunc("PUT /api/exams/{id}", a.handleSaveExam)
	mux.HandleFunc("DELETE /api/exams/{id}", a.handleDeleteExam)
	mux.HandleFunc("GET /api/notes", a.handleNotes)
	mux.HandleFunc("PUT /api/notes", a.handleReplaceNotes)
	mux.HandleFunc("GET /api/flashcards", a.handleFlashcards)
	mux.HandleFunc("PUT /api/flashcards", a.handleReplaceFlashcards)
	mux.HandleFunc("GET /api/preferences", a.handlePreferences)
	mux.HandleFunc("PUT /api/preferences", a.handleSetPreferences)

	mux.HandleFunc("GET /api/backup", a.handleExport)
	mux.HandleFunc("POST /api/backup", a.handleImport)
	mux.HandleFunc("GET /api/report.xlsx", a.handleReport)

	mux.HandleFunc("POST /api/mentor/tips", a.handleTips)
	mux.HandleFunc("POST /api/mentor/ask", a.handleAsk)

	mux.HandleFunc("GET /api/feed", a.handleFeed)
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.tr.Ping(ctx); err != nil {
		slog.Warn("readiness check failed", "backend", a.tr.BackendName(), "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "backend": a.tr.BackendName()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready", "backend": a.tr.BackendName()})
}

type ctxKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// Hijack hands the connection to the WebSocket feed.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	w.status = http.StatusSwitchingProtocols
	return http.NewResponseController(w.ResponseWriter).Hijack()
}

func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		slog.Debug("http request",
			"request_id", requestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("panic recovered", "request_id", requestID(r.Context()), "panic", rec, "stack", string(debug.Stack()))
				writeError(w, http.StatusInternalServerError, "internal", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
