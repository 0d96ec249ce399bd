package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS session_records (
	scope_id   TEXT PRIMARY KEY,
	record     BLOB NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStorage is a durable tier backed by a local SQLite database, for
// desktop and CLI deployments where the session must survive a restart.
type SQLiteStorage struct {
	db      *sql.DB
	scopeID string
}

// OpenSQLite opens (and if needed creates) the session database at path and
// returns a durable tier scoped to scopeID. Use ":memory:" for tests.
func OpenSQLite(path, scopeID string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}
	storage, err := NewSQLiteStorage(db, scopeID)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return storage, nil
}

// NewSQLiteStorage wraps an existing database handle, creating the session
// table when missing.
func NewSQLiteStorage(db *sql.DB, scopeID string) (*SQLiteStorage, error) {
	if scopeID == "" {
		scopeID = "default"
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("creating session table: %w", err)
	}
	return &SQLiteStorage{db: db, scopeID: scopeID}, nil
}

// Read returns the stored record or [ErrNoRecord].
func (s *SQLiteStorage) Read(ctx context.Context) ([]byte, error) {
	var record []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM session_records WHERE scope_id = ?`, s.scopeID,
	).Scan(&record)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("reading session record: %w", err)
	}
	return record, nil
}

// Write upserts the stored record.
func (s *SQLiteStorage) Write(ctx context.Context, record []byte) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_records (scope_id, record, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(scope_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		s.scopeID, record, now,
	)
	if err != nil {
		return fmt.Errorf("writing session record: %w", err)
	}
	return nil
}

// Clear deletes the stored record. Deleting a missing record is not an
// error.
func (s *SQLiteStorage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_records WHERE scope_id = ?`, s.scopeID,
	); err != nil {
		return fmt.Errorf("clearing session record: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
