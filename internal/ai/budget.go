package ai

import (
	"fmt"
	"sync"
	"time"
)

// DailyBudget caps the tokens spent per calendar day. A zero limit means
// unlimited. Usage resets when the day changes.
type DailyBudget struct {
	mu    sync.Mutex
	limit int64
	now   func() time.Time
	day   string
	used  int64
}

// NewDailyBudget creates a budget of limit tokens per day.
func NewDailyBudget(limit int64) *DailyBudget {
	return &DailyBudget{limit: limit, now: time.Now}
}

// WithClock replaces the budget's clock. Used in tests.
func (b *DailyBudget) WithClock(now func() time.Time) *DailyBudget {
	b.now = now
	return b
}

// Allow reports whether today's usage is still under the limit.
func (b *DailyBudget) Allow() bool {
	if b == nil || b.limit <= 0 {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.used < b.limit
}

// Record adds tokens to today's usage.
func (b *DailyBudget) Record(tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	b.used += int64(tokens)
	return nil
}

// Usage returns today's usage and the limit.
func (b *DailyBudget) Usage() (used, limit int64) {
	if b == nil {
		return 0, 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.used, b.limit
}

func (b *DailyBudget) roll() {
	day := b.now().Format(time.DateOnly)
	if day != b.day {
		b.day = day
		b.used = 0
	}
}
