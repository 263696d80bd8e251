// Package store keeps reader preferences in SQLite, keyed by visitor id.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrEmptyVisitor is returned when a visitor id is blank.
var ErrEmptyVisitor = errors.New("store: empty visitor id")

// Store wraps a SQLite database holding preference rows.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, now: time.Now}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// dsn applies the pragmas to every pooled connection. WAL lets page renders
// read while a preference POST writes; writers wait on the busy timeout
// instead of failing with SQLITE_BUSY.
func dsn(path string) string {
	return "file:" + path +
		"?_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)"
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS preferences (
    visitor_id TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    PRIMARY KEY (visitor_id, key)
);
`)
	if err != nil {
		return fmt.Errorf("store: schema: %w", err)
	}
	return nil
}

// Get returns the value saved for visitor and key.
func (s *Store) Get(visitor, key string) (string, bool, error) {
	if visitor == "" {
		return "", false, ErrEmptyVisitor
	}
	var value string
	err := s.db.QueryRow(`SELECT value FROM preferences WHERE visitor_id = ? AND key = ?`, visitor, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return value, true, nil
}

// Set upserts a preference value.
func (s *Store) Set(visitor, key, value string) error {
	if visitor == "" {
		return ErrEmptyVisitor
	}
	_, err := s.db.Exec(`
INSERT INTO preferences (visitor_id, key, value, updated_at) VALUES (?, ?, ?, ?)
ON CONFLICT(visitor_id, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		visitor, key, value, s.now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

// All returns every saved preference for a visitor.
func (s *Store) All(visitor string) (map[string]string, error) {
	rows, err := s.db.Query(`SELECT key, value FROM preferences WHERE visitor_id = ?`, visitor)
	if err != nil {
		return nil, fmt.Errorf("store: list: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// DeleteVisitor removes all rows for a visitor.
func (s *Store) DeleteVisitor(visitor string) error {
	_, err := s.db.Exec(`DELETE FROM preferences WHERE visitor_id = ?`, visitor)
	return err
}

// Prune deletes rows not updated since before. It returns the number removed.
func (s *Store) Prune(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM preferences WHERE updated_at < ?`, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("store: prune: %w", err)
	}
	return res.RowsAffected()
}

// VisitorStorage scopes a Store to one visitor. It satisfies theme.Storage.
type VisitorStorage struct {
	Store   *Store
	Visitor string
}

func (v VisitorStorage) Get(key string) (string, bool, error) {
	return v.Store.Get(v.Visitor, key)
}

func (v VisitorStorage) Set(key, value string) error {
	return v.Store.Set(v.Visitor, key, value)
}
