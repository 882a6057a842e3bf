package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB defines the subset of [pgxpool.Pool] used by [PostgresStore] so it can be mocked in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PostgresStore keeps values in a kv_store table in PostgreSQL.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates the kv_store table if needed.
func NewPostgresStore(ctx context.Context, db DB) (*PostgresStore, error) {
	if _, err := db.Exec(ctx, postgresSchema); err != nil {
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(ctx, "SELECT value FROM kv_store WHERE key = $1", key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrap("get", key, err)
	}
	return value, true, nil
}

func (s *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, key, value); err != nil {
		return wrap("set", key, err)
	}
	return nil
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM kv_store WHERE key = $1", key); err != nil {
		return wrap("remove", key, err)
	}
	return nil
}
