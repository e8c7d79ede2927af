// Package mentor is the study assistant: exam tips for a topic and free-form
// questions. Every failure degrades to a fixed reply; callers never see
// provider errors.
package mentor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/p-n-ai/medstudy/internal/ai"
	"github.com/p-n-ai/medstudy/internal/curriculum"
)

// Fallback replies.
const (
	TipsFallback = "Desculpe, não consegui obter dicas para este tema no momento."
	AskFallback  = "Ocorreu um erro ao processar sua pergunta."
)

// DefaultContext is used when a question arrives without a study context.
const DefaultContext = "Medicina Geral e Residência Médica"

var (
	// ErrBusy means the same kind of request is already in flight.
	ErrBusy = errors.New("mentor request already in progress")
	// ErrEmptyInput means the topic or question was blank.
	ErrEmptyInput = errors.New("topic or question is required")
	// ErrServiceUnavailable means no text generator is configured.
	ErrServiceUnavailable = errors.New("mentor service unavailable")
)

// Generator produces text. *ai.Router satisfies it.
type Generator interface {
	Complete(ctx context.Context, req ai.CompletionRequest) (ai.CompletionResponse, error)
}

// TipCache stores tips by topic. *cache.Cache satisfies it.
type TipCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, val string, ttl time.Duration) error
}

// Config wires a Service.
type Config struct {
	Generator Generator // nil: every call degrades
	Cache     TipCache  // nil: no caching
	TipTTL    time.Duration
	Budget    *ai.DailyBudget
	Timeout   time.Duration
}

// Reply is the text shown to the user. Degraded marks a fallback reply.
type Reply struct {
	Text     string `json:"text"`
	Degraded bool   `json:"degraded"`
	Cached   bool   `json:"cached,omitempty"`
}

// Service answers mentor requests. At most one tips request and one question
// run at a time.
type Service struct {
	gen     Generator
	cache   TipCache
	ttl     time.Duration
	budget  *ai.DailyBudget
	timeout time.Duration

	tipsBusy atomic.Bool
	askBusy  atomic.Bool
}

// New creates a Service.
func New(cfg Config) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Service{
		gen:     cfg.Generator,
		cache:   cfg.Cache,
		ttl:     cfg.TipTTL,
		budget:  cfg.Budget,
		timeout: cfg.Timeout,
	}
}

// StudyTips returns exam pearls for a topic.
func (s *Service) StudyTips(ctx context.Context, topic string) (Reply, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return Reply{}, ErrEmptyInput
	}
	if !s.tipsBusy.CompareAndSwap(false, true) {
		return Reply{}, ErrBusy
	}
	defer s.tipsBusy.Store(false)

	key := tipKey(topic)
	if s.cache != nil {
		text, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			slog.Warn("tip cache read failed", "topic", topic, "error", err)
		case ok:
			return Reply{Text: text, Cached: true}, nil
		}
	}

	reply := s.generate(ctx, ai.TaskStudyTips, tipsPrompt(topic), TipsFallback)
	if !reply.Degraded && s.cache != nil {
		if err := s.cache.Set(ctx, key, reply.Text, s.ttl); err != nil {
			slog.Warn("tip cache write failed", "topic", topic, "error", err)
		}
	}
	return reply, nil
}

// Ask answers a free-form question within a study context.
func (s *Service) Ask(ctx context.Context, question, studyContext string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, ErrEmptyInput
	}
	studyContext = strings.TrimSpace(studyContext)
	if studyContext == "" {
		studyContext = DefaultContext
	}
	if !s.askBusy.CompareAndSwap(false, true) {
		return Reply{}, ErrBusy
	}
	defer s.askBusy.Store(false)

	return s.generate(ctx, ai.TaskQuestion, askPrompt(question, studyContext), AskFallback), nil
}

// HealthCheck reports ErrServiceUnavailable when no generator is configured.
func (s *Service) HealthCheck() error {
	if s.gen == nil {
		return ErrServiceUnavailable
	}
	return nil
}

func (s *Service) generate(ctx context.Context, task ai.TaskType, msgs []ai.Message, fallback string) Reply {
	if s.gen == nil {
		slog.Warn("mentor degraded", "task", task.String(), "error", ErrServiceUnavailable)
		return Reply{Text: fallback, Degraded: true}
	}
	if !s.budget.Allow() {
		used, limit := s.budget.Usage()
		slog.Warn("mentor degraded", "task", task.String(), "reason", "daily token budget exhausted", "used", used, "limit", limit)
		return Reply{Text: fallback, Degraded: true}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.gen.Complete(ctx, ai.CompletionRequest{Messages: msgs, Task: task})
	if err == nil && strings.TrimSpace(resp.Content) == "" {
		err = fmt.Errorf("empty response from %s", resp.Provider)
	}
	if err != nil {
		slog.Warn("mentor degraded", "task", task.String(), "error", err)
		return Reply{Text: fallback, Degraded: true}
	}
	if err := s.budget.Record(resp.TotalTokens()); err != nil {
		slog.Warn("recording token usage failed", "error", err)
	}
	return Reply{Text: strings.TrimSpace(resp.Content)}
}

func tipKey(topic string) string {
	return "tip:" + curriculum.Fold(topic)
}
