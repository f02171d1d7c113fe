package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv_entries (
	key TEXT NOT NULL PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite is a Store backed by a single SQLite table.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// NewSQLite opens (or creates) the database at dbPath.
func NewSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	if _, err := db.Exec(createKVTable); err != nil {
		db.Close() //nolint:errcheck,gosec // migration error wins
		return nil, fmt.Errorf("migrate store db: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Get implements Store.
func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_entries WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store get: %w", err)
	}
	return value, true, nil
}

// Set implements Store.
func (s *SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv_entries (key, value, updated_at) VALUES (?, ?, ?)`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store set: %w", err)
	}
	return nil
}

// Delete implements Store.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("store delete: %w", err)
	}
	return nil
}

// Len returns the number of stored keys.
func (s *SQLite) Len(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM kv_entries`).Scan(&count); err != nil {
		return 0, fmt.Errorf("store count: %w", err)
	}
	return count, nil
}

// Close releases the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}
