// SPDX-License-Identifier: MIT

// Package sqlitestore persists the event journal in a SQLite database using
// the pure-Go modernc driver.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure Go driver

	"github.com/goeda/goeda/event"
	"github.com/goeda/goeda/eventstore"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	id          TEXT NOT NULL UNIQUE,
	name        TEXT NOT NULL,
	previous    TEXT NOT NULL DEFAULT '',
	occurred_at TEXT NOT NULL,
	payload     BLOB
);
CREATE INDEX IF NOT EXISTS events_name_idx ON events(name);
`

// Store is a SQLite-backed Journal.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at the given path. WAL mode
// and busy_timeout are applied through the DSN so every pooled connection
// gets them.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite journal: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create journal schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Append(ctx context.Context, evt event.Event) error {
	env, err := event.Wrap(evt)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO events (id, name, previous, occurred_at, payload) VALUES (?, ?, ?, ?, ?)`,
		env.ID,
		env.Name,
		strings.Join(env.Previous, ","),
		env.OccurredAt.UTC().Format(time.RFC3339Nano),
		[]byte(env.Payload),
	)
	if err != nil {
		return fmt.Errorf("append %s: %w", env.Name, err)
	}
	return nil
}

func (s *Store) ReadSince(ctx context.Context, since uint64, limit int) ([]eventstore.Record, error) {
	query := `SELECT seq, id, name, previous, occurred_at, payload FROM events WHERE seq > ? ORDER BY seq`
	args := []any{since}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []eventstore.Record
	for rows.Next() {
		var (
			rec        eventstore.Record
			previous   string
			occurredAt string
			payload    []byte
		)
		if err := rows.Scan(&rec.Seq, &rec.Envelope.ID, &rec.Envelope.Name, &previous, &occurredAt, &payload); err != nil {
			return nil, fmt.Errorf("scan journal record: %w", err)
		}
		if previous != "" {
			rec.Envelope.Previous = strings.Split(previous, ",")
		}
		ts, err := time.Parse(time.RFC3339Nano, occurredAt)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp of record %d: %w", rec.Seq, err)
		}
		rec.Envelope.OccurredAt = ts
		rec.Envelope.Payload = json.RawMessage(payload)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return out, nil
}

func (s *Store) LastSeq(ctx context.Context) (uint64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM events`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil
}

var _ eventstore.Journal = (*Store)(nil)
