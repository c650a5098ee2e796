// Package session persists uploaded documents and their editable table
// state between web requests. Sessions are keyed by random id and stored
// in SQLite so a server restart does not lose in-progress edits.
package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when no session exists for an id.
var ErrNotFound = errors.New("session: not found")

// Session is one uploaded document and its current table state.
type Session struct {
	ID        string
	Filename  string
	Format    string
	Original  []byte // the uploaded document, byte for byte
	Tables    []byte // current table set in structured JSON form
	CreatedAt time.Time
	UpdatedAt time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	filename   TEXT NOT NULL,
	format     TEXT NOT NULL,
	original   BLOB NOT NULL,
	tables     BLOB NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
`

// Store is a SQLite-backed session store. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens or creates the session database at path.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create stores a new session and returns it with a fresh id.
func (s *Store) Create(ctx context.Context, filename, format string, original, tables []byte) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Filename:  filename,
		Format:    format,
		Original:  original,
		Tables:    tables,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, filename, format, original, tables, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Filename, sess.Format, sess.Original, sess.Tables,
		now.Unix(), now.Unix())
	if err != nil {
		return nil, fmt.Errorf("session: creating: %w", err)
	}
	return sess, nil
}

// Get loads a session by id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	var sess Session
	var created, updated int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, format, original, tables, created_at, updated_at
		 FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.Filename, &sess.Format, &sess.Original, &sess.Tables,
			&created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("session: loading %s: %w", id, err)
	}
	sess.CreatedAt = time.Unix(created, 0).UTC()
	sess.UpdatedAt = time.Unix(updated, 0).UTC()
	return &sess, nil
}

// UpdateTables replaces a session's table state.
func (s *Store) UpdateTables(ctx context.Context, id string, tables []byte) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET tables = ?, updated_at = ? WHERE id = ?`,
		tables, time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("session: updating %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Delete removes a session.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("session: deleting %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// Sweep removes sessions idle longer than ttl and reports how many went.
func (s *Store) Sweep(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl).Unix()
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("session: sweeping: %w", err)
	}
	return res.RowsAffected()
}
