// Package sqlite provides a history.Store backed by an embedded SQLite
// database (pure Go driver, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/rephrase/core"
	"github.com/hupe1980/rephrase/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	sender     TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TEXT NOT NULL
);`

var _ history.Store = (*Store)(nil)

// Store keeps the message log in a single table ordered by an
// autoincrement sequence.
type Store struct {
	db   *sql.DB
	opts history.Options
}

// Open creates or opens the database at path. Use ":memory:" for a
// throwaway database.
func Open(path string, optFns ...func(o *history.Options)) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, history.Persist("mkdir", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, history.Persist("open", err)
	}
	// A single connection serializes writers and keeps ":memory:" databases
	// alive across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, history.Persist("migrate", err)
	}

	return &Store{db: db, opts: history.DefaultOptions(optFns...)}, nil
}

// Append implements history.Store.
func (s *Store) Append(ctx context.Context, sender, text string) (*core.Message, error) {
	msg, err := s.opts.NewMessage(sender, text)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, history.Persist("begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (id, sender, message, created_at) VALUES (?, ?, ?, ?)`,
		msg.ID, msg.Sender, msg.Text, msg.Timestamp.Format(time.RFC3339Nano),
	); err != nil {
		return nil, history.Persist("insert", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, history.Persist("commit", err)
	}
	return msg, nil
}

// List implements history.Store.
func (s *Store) List(ctx context.Context) ([]*core.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, sender, message, created_at FROM messages ORDER BY seq`)
	if err != nil {
		return nil, history.Persist("query", err)
	}
	defer rows.Close()

	msgs := []*core.Message{}
	for rows.Next() {
		var (
			m  core.Message
			ts string
		)
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &ts); err != nil {
			return nil, history.Persist("scan", err)
		}
		if m.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, history.Persist("scan", fmt.Errorf("timestamp %q: %w", ts, err))
		}
		msgs = append(msgs, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, history.Persist("iterate", err)
	}
	return msgs, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
