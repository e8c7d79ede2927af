package ai_test

import (
	"context"
	"testing"

	"github.com/p-n-ai/medstudy/internal/ai"
)

func TestMockProvider_Complete(t *testing.T) {
	mock := ai.NewMockProvider("test response")

	resp, err := mock.Complete(context.Background(), ai.CompletionRequest{
		Messages: []ai.Message{{Role: "user", Content: "Hello"}},
		Task:     ai.TaskQuestion,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "test response" {
		t.Errorf("Content = %q, want %q", resp.Content, "test response")
	}
	if resp.Model != "mock" {
		t.Errorf("Model = %q, want %q", resp.Model, "mock")
	}
	if last := mock.LastRequest(); last == nil || last.Task != ai.TaskQuestion {
		t.Errorf("LastRequest() = %+v", last)
	}
}

func TestMockProvider_GateHonorsContext(t *testing.T) {
	mock := ai.NewMockProvider("late")
	mock.Gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mock.Complete(ctx, ai.CompletionRequest{}); err == nil {
		t.Error("Complete() should fail when ctx ends before the gate opens")
	}
}

func TestTaskType_String(t *testing.T) {
	tests := []struct {
		task     ai.TaskType
		expected string
	}{
		{ai.TaskStudyTips, "study_tips"},
		{ai.TaskQuestion, "question"},
		{ai.TaskType(99), "unknown"},
	}
	for _, tt := range tests {
		if tt.task.String() != tt.expected {
			t.Errorf("TaskType.String() = %q, want %q", tt.task.String(), tt.expected)
		}
	}
}

func TestCompletionRequest_System(t *testing.T) {
	req := ai.CompletionRequest{Messages: []ai.Message{
		{Role: "system", Content: "a"},
		{Role: "user", Content: "x"},
		{Role: "system", Content: "b"},
	}}
	if got := req.System(); got != "a\n\nb" {
		t.Errorf("System() = %q, want %q", got, "a\n\nb")
	}
}

func TestCompletionResponse_TotalTokens(t *testing.T) {
	resp := ai.CompletionResponse{InputTokens: 100, OutputTokens: 50}
	if got := resp.TotalTokens(); got != 150 {
		t.Errorf("TotalTokens() = %d, want 150", got)
	}
}
