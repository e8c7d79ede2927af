package snapshot

import (
	"context"
	"sync"
	"time"
)

const dbTimeout = 5 * time.Second

// Backend stores the encoded document. Load returns nil data when nothing
// has been saved yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Name() string
	HealthCheck(ctx context.Context) error
	Close() error
}

// MemoryBackend keeps the snapshot in process memory. Used for tests and the
// "memory" storage setting.
type MemoryBackend struct {
	mu    sync.RWMutex
	data  []byte
	saves int
	err   error
}

// NewMemoryBackend creates a memory backend, optionally pre-loaded.
func NewMemoryBackend(initial []byte) *MemoryBackend {
	return &MemoryBackend{data: cloneBytes(initial)}
}

func (b *MemoryBackend) Load(context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return cloneBytes(b.data), nil
}

func (b *MemoryBackend) Save(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.data = cloneBytes(data)
	b.saves++
	return nil
}

func (b *MemoryBackend) Name() string { return "memory" }

func (b *MemoryBackend) HealthCheck(context.Context) error { return nil }

func (b *MemoryBackend) Close() error { return nil }

// FailSaves makes every following Save return err; nil restores normal
// behavior.
func (b *MemoryBackend) FailSaves(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

// Saves returns how many saves succeeded.
func (b *MemoryBackend) Saves() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saves
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
