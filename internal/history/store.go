// Package history keeps a persistent record of media loaded through
// mpvctl, backed by SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the load history database.
type Store struct {
	db *sql.DB
}

// Entry is one successful load.
type Entry struct {
	ID       int64
	Source   string
	Name     string
	Duration time.Duration
	LoadedAt time.Time
}

// Open opens (creating if needed) the history database at path.
// Use ":memory:" for a throwaway store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One connection keeps ":memory:" databases consistent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS loads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			source TEXT NOT NULL,
			name TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			loaded_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_loads_loaded_at ON loads(loaded_at);
	`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a load and returns its id. A zero LoadedAt means now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.LoadedAt.IsZero() {
		e.LoadedAt = time.Now()
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO loads (source, name, duration_ms, loaded_at) VALUES (?, ?, ?, ?)`,
		e.Source,
		e.Name,
		e.Duration.Milliseconds(),
		e.LoadedAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert load: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get insert id: %w", err)
	}

	return id, nil
}

// Recent returns the newest loads first. A limit of zero or less
// returns everything.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, source, name, duration_ms, loaded_at
		FROM loads
		ORDER BY loaded_at DESC, id DESC
	`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query loads: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs, loadedAtMs int64

		if err := rows.Scan(&e.ID, &e.Source, &e.Name, &durationMs, &loadedAtMs); err != nil {
			return nil, fmt.Errorf("failed to scan load: %w", err)
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.LoadedAt = time.UnixMilli(loadedAtMs)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loads: %w", err)
	}

	return entries, nil
}

// Cleanup deletes loads older than maxAge and returns how many went.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).UnixMilli()

	result, err := s.db.ExecContext(ctx, `DELETE FROM loads WHERE loaded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old loads: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// Count returns the number of stored loads.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM loads").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count loads: %w", err)
	}
	return count, nil
}
