package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Mutation event types.
const (
	EventTopicAdded         = "topic_added"
	EventTopicDeleted       = "topic_deleted"
	EventTopicUpdated       = "topic_updated"
	EventTopicToggled       = "topic_toggled"
	EventSubAreaRenamed     = "subarea_renamed"
	EventSubAreaDeleted     = "subarea_deleted"
	EventAreaSummarySet     = "area_summary_set"
	EventHotTopicAdded      = "hot_topic_added"
	EventHotTopicUpdated    = "hot_topic_updated"
	EventHotTopicDeleted    = "hot_topic_deleted"
	EventHotTopicsReset     = "hot_topics_reset"
	EventHotTopicToggled    = "hot_topic_toggled"
	EventScheduleUpdated    = "schedule_updated"
	EventSchedulePruned     = "schedule_pruned"
	EventPlanUpdated        = "plan_updated"
	EventExamSaved          = "exam_saved"
	EventExamDeleted        = "exam_deleted"
	EventNotesReplaced      = "notes_replaced"
	EventFlashcardsReplaced = "flashcards_replaced"
	EventPreferencesSet     = "preferences_set"
	EventImported           = "backup_imported"
)

// Event records one applied mutation.
type Event struct {
	Type      string
	Revision  uint64
	Data      map[string]any
	CreatedAt time.Time
}

// EventLogger defines event logging behavior.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error {
	return nil
}

// MemoryEventLogger stores events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		events: []Event{},
	}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, event Event) error {
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// Types returns the recorded event types in order.
func (l *MemoryEventLogger) Types() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.Type
	}
	return out
}

// PostgresEventLogger inserts events into the study_events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
	slot string
}

func NewPostgresEventLogger(pool *pgxpool.Pool, slot string) *PostgresEventLogger {
	if slot == "" {
		slot = "default"
	}
	return &PostgresEventLogger{pool: pool, slot: slot}
}

func (l *PostgresEventLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.Type == "" {
		return fmt.Errorf("event type is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err = l.pool.Exec(ctx,
		`INSERT INTO study_events (slot, event_type, revision, data, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		l.slot,
		event.Type,
		int64(event.Revision),
		string(data),
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.Type,
		"revision", event.Revision,
	)
	return nil
}
