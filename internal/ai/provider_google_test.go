package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiServer(t *testing.T, got *geminiRequest, text string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Role: "model", Parts: []geminiPart{{Text: text}}},
			}},
			UsageMetadata: geminiUsage{PromptTokenCount: 8, CandidatesTokenCount: 12},
		})
	}))
}

func TestGoogleProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing or wrong API key in query")
		}
		json.NewEncoder(w).Encode(geminiResponse{
			Candidates: []geminiCandidate{{
				Content: geminiContent{Parts: []geminiPart{{Text: "Revise "}, {Text: "os critérios de sepse."}}},
			}},
			UsageMetadata: geminiUsage{PromptTokenCount: 8, CandidatesTokenCount: 12},
		})
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "Sepse"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Revise os critérios de sepse." {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.InputTokens != 8 || resp.OutputTokens != 12 {
		t.Errorf("tokens = %d/%d, want 8/12", resp.InputTokens, resp.OutputTokens)
	}
	if resp.Provider != "google" || resp.Model != "gemini-2.5-flash" {
		t.Errorf("provider/model = %q/%q", resp.Provider, resp.Model)
	}
}

func TestGoogleProvider_Complete_SystemInstruction(t *testing.T) {
	var got geminiRequest
	server := geminiServer(t, &got, "ok")
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL), WithGoogleModel("gemini-2.5-pro"))
	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "Você é um preceptor de residência."},
			{Role: "user", Content: "oi"},
			{Role: "assistant", Content: "olá"},
			{Role: "user", Content: "explique choque"},
		},
		MaxTokens:   256,
		Temperature: 0.4,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Model != "gemini-2.5-pro" {
		t.Errorf("model = %q, want gemini-2.5-pro", resp.Model)
	}
	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "Você é um preceptor de residência." {
		t.Errorf("systemInstruction = %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 3 {
		t.Fatalf("got %d contents, want 3 (system moved out)", len(got.Contents))
	}
	if got.Contents[1].Role != "model" {
		t.Errorf("assistant role mapped to %q, want model", got.Contents[1].Role)
	}
	if got.GenerationConfig == nil || got.GenerationConfig.MaxOutputTokens != 256 || *got.GenerationConfig.Temperature != 0.4 {
		t.Errorf("generationConfig = %+v", got.GenerationConfig)
	}
}

func TestGoogleProvider_Complete_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"api error", http.StatusForbidden, `{"error": "forbidden"}`},
		{"no candidates", http.StatusOK, `{"candidates": []}`},
		{"bad json", http.StatusOK, `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
			_, err := provider.Complete(context.Background(), CompletionRequest{
				Messages: []Message{{Role: "user", Content: "hello"}},
			})
			if err == nil {
				t.Fatal("Complete() should return error")
			}
		})
	}
}

func TestGoogleProvider_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusForbidden, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.Contains(r.URL.Path, "/models") {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
			err := provider.HealthCheck(context.Background())
			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
