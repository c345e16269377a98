package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS preferences (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (namespace, key)
);
`

// SQLite implements Store on a single SQLite table. All keys written through
// one instance live under its namespace.
type SQLite struct {
	conn      *sql.DB
	namespace string
}

// Verify *SQLite satisfies Store at compile time.
var _ Store = (*SQLite)(nil)

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn, namespace string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("prefs: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prefs: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("prefs: apply schema: %w", err)
	}
	return &SQLite{conn: conn, namespace: namespace}, nil
}

// Get returns the value for key in this store's namespace.
func (s *SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.conn.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE namespace = ? AND key = ?`,
		s.namespace, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("prefs: get %s: %w", key, err)
	}
	return v, true, nil
}

// Put upserts key in a single statement.
func (s *SQLite) Put(ctx context.Context, key, value string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO preferences (namespace, key, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, s.namespace, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("prefs: put %s: %w", key, err)
	}
	return nil
}

// Remove deletes key from this store's namespace.
func (s *SQLite) Remove(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM preferences WHERE namespace = ? AND key = ?`, s.namespace, key); err != nil {
		return fmt.Errorf("prefs: remove %s: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.conn.Close()
}
