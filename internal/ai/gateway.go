// Package ai is a small provider-agnostic text generation gateway. Providers
// are tried in registration order until one answers.
package ai

import (
	"context"
	"errors"
)

// TaskType names what a completion is for. Providers may tune limits by task.
type TaskType int

const (
	TaskStudyTips TaskType = iota
	TaskQuestion
)

func (t TaskType) String() string {
	switch t {
	case TaskStudyTips:
		return "study_tips"
	case TaskQuestion:
		return "question"
	default:
		return "unknown"
	}
}

// ErrNoProvider is returned when a Router has nothing registered.
var ErrNoProvider = errors.New("no AI provider configured")

// Message is one chat turn. Role is "system", "user" or "assistant".
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to a completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
}

// System returns the concatenated system messages.
func (r CompletionRequest) System() string {
	var out string
	for _, m := range r.Messages {
		if m.Role != "system" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += m.Content
	}
	return out
}

// CompletionResponse is the output of a completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// Provider generates text.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	HealthCheck(ctx context.Context) error
}
