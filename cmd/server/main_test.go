package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/medstudy/internal/platform/config"
)

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 0},
		Storage: config.StorageConfig{
			Backend:    backend,
			Path:       filepath.Join(dir, "nested", "medstudy.json"),
			SQLitePath: filepath.Join(dir, "nested", "medstudy.db"),
			Slot:       "default",
		},
		AI:   config.AIConfig{TimeoutSeconds: 5},
		Exam: config.ExamConfig{Name: "ENARE", Date: "2026-11-15"},
		Log:  config.LogConfig{Level: "info", Format: "json"},
	}
}

func TestBuild_HealthEndpoints(t *testing.T) {
	handler, cleanup, err := build(context.Background(), testConfig(t, config.BackendMemory))
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	defer cleanup()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{"healthz returns 200", "/healthz", http.StatusOK, `{"status":"ok"}`},
		{"readyz pings the backend", "/readyz", http.StatusOK, `{"backend":"memory","status":"ready"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
		})
	}
}

func TestBuild_SeedsDefaults(t *testing.T) {
	handler, cleanup, err := build(context.Background(), testConfig(t, config.BackendMemory))
	if err != nil {
		t.Fatalf("build() error = %v", err)
	}
	defer cleanup()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/preferences", nil))
	var prefs map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&prefs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if prefs["targetExamName"] != "ENARE" || prefs["targetExamDate"] != "2026-11-15" || prefs["theme"] != "light" {
		t.Errorf("preferences = %v", prefs)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/areas", nil))
	var areas []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&areas); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(areas) == 0 {
		t.Error("no seed areas loaded")
	}
}

func TestOpenStorage_LocalBackends(t *testing.T) {
	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			d, err := openStorage(context.Background(), testConfig(t, backend))
			if err != nil {
				t.Fatalf("openStorage() error = %v", err)
			}
			defer d.close()
			if d.backend.Name() != backend {
				t.Errorf("backend = %q, want %q", d.backend.Name(), backend)
			}
			if err := d.backend.HealthCheck(context.Background()); err != nil {
				t.Errorf("HealthCheck() error = %v", err)
			}
		})
	}
}

func TestOpenStorage_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t, config.BackendRedis)
	cfg.Cache.URL = "redis://127.0.0.1:1"
	if _, err := openStorage(context.Background(), cfg); err == nil {
		t.Error("openStorage() with unreachable redis should return error")
	}
}

func TestNewRouter(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.AIConfig
		want []string
	}{
		{"no keys", config.AIConfig{}, nil},
		{"google only", config.AIConfig{Google: config.GoogleConfig{APIKey: "g", Model: "gemini-2.5-flash"}}, []string{"google"}},
		{"both", config.AIConfig{
			Google: config.GoogleConfig{APIKey: "g"},
			OpenAI: config.OpenAIConfig{APIKey: "o", BaseURL: "http://localhost:11434/v1"},
		}, []string{"google", "openai"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := newRouter(tt.cfg).Providers()
			if !slices.Equal(got, tt.want) {
				t.Errorf("Providers() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewMentor_WithoutProvider(t *testing.T) {
	svc := newMentor(testConfig(t, config.BackendMemory), nil)
	if err := svc.HealthCheck(); err == nil {
		t.Error("HealthCheck() should fail without providers")
	}
}

func TestServe_Shutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv) }()
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve() did not return after cancel")
	}
}
