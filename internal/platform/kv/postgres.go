package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/moodjournal/moodjournal/internal/platform/db"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS kv_store (
	key        TEXT PRIMARY KEY,
	value      JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores values in the kv_store table.
type Postgres struct {
	pool      *pgxpool.Pool
	namespace string
}

// NewPostgres wraps a pool. Call EnsureSchema before first use.
func NewPostgres(pool *pgxpool.Pool, namespace string) *Postgres {
	return &Postgres{pool: pool, namespace: namespace}
}

// EnsureSchema creates the kv_store table when missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, schemaSQL); err != nil {
			return fmt.Errorf("%w: create kv_store: %w", ErrUnavailable, err)
		}
		return nil
	})
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, key string, dest any) (bool, error) {
	scoped := scopedKey(p.namespace, key)
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, scoped).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: postgres get %q: %w", ErrUnavailable, scoped, err)
	}
	if err := decode(scoped, raw, dest); err != nil {
		return true, err
	}
	return true, nil
}

// Set implements Store.
func (p *Postgres) Set(ctx context.Context, key string, value any) error {
	scoped := scopedKey(p.namespace, key)
	raw, err := encode(scoped, value)
	if err != nil {
		return err
	}
	const query = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	if _, err := p.pool.Exec(ctx, query, scoped, raw); err != nil {
		return fmt.Errorf("%w: postgres set %q: %w", ErrUnavailable, scoped, err)
	}
	return nil
}
