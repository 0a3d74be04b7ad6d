package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// purgeHorizon is the absolute age past which rows are swept, independent of
// their window.
const purgeHorizon = 24 * time.Hour

// Store persists produced summaries keyed by (channel, window hours). Rows are
// append-only: a fresh summary for a key is inserted, never updated in place,
// and stale rows fall out of Lookup via the validity predicate until the purge
// sweeps them.
type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *Store) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS summaries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			channel_id TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			summary TEXT NOT NULL,
			duration_hours INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_lookup
			ON summaries(channel_id, duration_hours, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_timestamp
			ON summaries(timestamp)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Lookup returns the newest summary for (channelID, hours) that is still
// inside its own window: now - createdAt must be strictly less than the
// window. Timestamps are unix milliseconds.
func (s *Store) Lookup(channelID string, hours int, now time.Time) (string, bool, error) {
	cutoff := now.UnixMilli() - int64(hours)*time.Hour.Milliseconds()

	var summary string
	err := s.db.QueryRow(
		`SELECT summary FROM summaries
		 WHERE channel_id = ? AND duration_hours = ? AND timestamp > ?
		 ORDER BY timestamp DESC LIMIT 1`,
		channelID, hours, cutoff,
	).Scan(&summary)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup summary: %w", err)
	}
	return summary, true, nil
}

// Save inserts a new row. Concurrent saves for the same key may leave
// duplicate rows; Lookup reads the newest valid one.
func (s *Store) Save(channelID string, hours int, summary string, now time.Time) error {
	_, err := s.db.Exec(
		`INSERT INTO summaries (channel_id, timestamp, summary, duration_hours)
		 VALUES (?, ?, ?, ?)`,
		channelID, now.UnixMilli(), summary, hours,
	)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// PurgeExpired deletes rows older than the 24h horizon regardless of their
// window. Safe to call repeatedly.
func (s *Store) PurgeExpired(now time.Time) (int64, error) {
	cutoff := now.Add(-purgeHorizon).UnixMilli()
	res, err := s.db.Exec(`DELETE FROM summaries WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge summaries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge summaries: %w", err)
	}
	return n, nil
}
