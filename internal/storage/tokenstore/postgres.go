package tokenstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps the token in a key/value table, for consoles that run on
// hosts without a durable local disk
type Postgres struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgres creates a PostgreSQL token store
func NewPostgres(pool *pgxpool.Pool, key string) *Postgres {
	if key == "" {
		key = DefaultKey
	}
	return &Postgres{pool: pool, key: key}
}

// EnsureSchema creates the backing table if it does not exist
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS console_state (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("creating console_state table: %w", err)
	}
	return nil
}

// Get returns the stored token, or "" when none is stored
func (s *Postgres) Get(ctx context.Context) (string, error) {
	query := `SELECT value FROM console_state WHERE key = $1`

	var token string
	err := s.pool.QueryRow(ctx, query, s.key).Scan(&token)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying token: %w", err)
	}

	return token, nil
}

// Set upserts the token
func (s *Postgres) Set(ctx context.Context, token string) error {
	query := `
		INSERT INTO console_state (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`

	if _, err := s.pool.Exec(ctx, query, s.key, token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// Clear deletes the token row
func (s *Postgres) Clear(ctx context.Context) error {
	query := `DELETE FROM console_state WHERE key = $1`

	if _, err := s.pool.Exec(ctx, query, s.key); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}
