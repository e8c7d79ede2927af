package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend keeps the snapshot as a JSONB row in study_snapshots. The
// table is created by database.EnsureSchema.
type PostgresBackend struct {
	pool *pgxpool.Pool
	slot string
}

// NewPostgresBackend creates a PostgreSQL-backed snapshot store. slot names
// the row; one row per learner.
func NewPostgresBackend(pool *pgxpool.Pool, slot string) (*PostgresBackend, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	if slot == "" {
		slot = "default"
	}
	return &PostgresBackend{pool: pool, slot: slot}, nil
}

func (b *PostgresBackend) Load(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var data string
	err := b.pool.QueryRow(ctx,
		`SELECT data::text FROM study_snapshots WHERE slot = $1`,
		b.slot,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return []byte(data), nil
}

func (b *PostgresBackend) Save(ctx context.Context, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := b.pool.Exec(ctx,
		`INSERT INTO study_snapshots (slot, data, updated_at)
		 VALUES ($1, $2::jsonb, NOW())
		 ON CONFLICT (slot) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		b.slot,
		string(data),
	)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) HealthCheck(ctx context.Context) error {
	return b.pool.Ping(ctx)
}

// Close is a no-op; the pool belongs to the caller.
func (b *PostgresBackend) Close() error { return nil }
