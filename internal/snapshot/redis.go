package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "medstudy:snapshot:"

// RedisBackend keeps the snapshot under a single Redis/Dragonfly key.
type RedisBackend struct {
	client *redis.Client
	key    string
}

// NewRedisBackend creates a Redis-backed snapshot store for slot.
func NewRedisBackend(client *redis.Client, slot string) (*RedisBackend, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if slot == "" {
		slot = "default"
	}
	return &RedisBackend{client: client, key: redisKeyPrefix + slot}, nil
}

func (b *RedisBackend) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	data, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}

func (b *RedisBackend) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) HealthCheck(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

// Close is a no-op; the client belongs to the caller.
func (b *RedisBackend) Close() error { return nil }
