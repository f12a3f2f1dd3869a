// internal/activity/store.go
//
// Append-only log of engine operations, backed by SQLite.
// Each row records which session ran which operation and how many words
// matched afterwards. Rows are never loaded back into an engine; constraint
// state still lives only in memory for the lifetime of a session.

package activity

import (
	"context"
	"database/sql"
	"time"

	"github.com/robalobadob/wordle/apps/go-hints/assets"
)

// Entry is one logged operation.
type Entry struct {
	SessionID  string    `json:"sessionId"`
	Op         string    `json:"op"`
	Detail     string    `json:"detail,omitempty"`
	MatchCount int       `json:"matchCount"` // -1 when the operation did not compute matches
	CreatedAt  time.Time `json:"createdAt"`
}

// OpCount is the number of times an operation was logged.
type OpCount struct {
	Op    string `json:"op"`
	Count int    `json:"count"`
}

// Store writes and summarizes activity rows.
type Store struct{ db *sql.DB }

// Open opens the database at path and applies the bundled migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db, assets.Migrations()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Record appends e. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity(session_id, op, detail, match_count, created_at) VALUES(?,?,?,?,?)`,
		e.SessionID, e.Op, e.Detail, e.MatchCount, e.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Counts returns how often each operation was logged, most frequent first.
func (s *Store) Counts(ctx context.Context) ([]OpCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT op, COUNT(1) AS n FROM activity GROUP BY op ORDER BY n DESC, op ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []OpCount{}
	for rows.Next() {
		var c OpCount
		if err := rows.Scan(&c.Op, &c.Count); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Recent returns up to limit entries for a session, newest first.
// Default limit is 50 if not specified.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT session_id, op, detail, match_count, created_at
        FROM activity
        WHERE session_id=?
        ORDER BY id DESC
        LIMIT ?`, sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.SessionID, &e.Op, &e.Detail, &e.MatchCount, &created); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
