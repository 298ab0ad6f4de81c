package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/klokku/calmcash/internal/database"
)

const (
	sqliteSelectQuery = `SELECT state_value FROM session_state WHERE state_key = ?`
	sqliteUpsertQuery = `INSERT INTO session_state (state_key, state_value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (state_key) DO UPDATE SET state_value = excluded.state_value, updated_at = excluded.updated_at`
	sqliteDeleteQuery = `DELETE FROM session_state WHERE state_key = ?`

	postgresSelectQuery = `SELECT state_value FROM session_state WHERE state_key = $1`
	postgresUpsertQuery = `INSERT INTO session_state (state_key, state_value, updated_at) VALUES ($1, $2, $3)
ON CONFLICT (state_key) DO UPDATE SET state_value = excluded.state_value, updated_at = excluded.updated_at`
	postgresDeleteQuery = `DELETE FROM session_state WHERE state_key = $1`
)

type queries struct {
	get    string
	upsert string
	delete string
}

// SQLStore keeps key-value pairs in the session_state table created by database.Migrate.
type SQLStore struct {
	db *sql.DB
	q  queries
}

func NewSQLStore(db *sql.DB, dialect database.Dialect) (*SQLStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}
	var q queries
	switch dialect {
	case database.SQLite:
		q = queries{get: sqliteSelectQuery, upsert: sqliteUpsertQuery, delete: sqliteDeleteQuery}
	case database.Postgres:
		q = queries{get: postgresSelectQuery, upsert: postgresUpsertQuery, delete: postgresDeleteQuery}
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}
	return &SQLStore{db: db, q: q}, nil
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.q.get, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query state %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	updatedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, s.q.upsert, key, value, updatedAt); err != nil {
		return fmt.Errorf("upsert state %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.q.delete, key); err != nil {
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	return nil
}
