package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/store"
)

//go:embed schema.sql
var schema string

// timeLayout is fixed width so stored values also sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements store.Store on an embedded SQLite database.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New opens the database at path (":memory:" for an ephemeral one).
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// An in-memory database only exists on the connection that created it.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	if path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	return &Store{db: db}, nil
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime reads stored timestamps, including legacy rows without an offset.
func parseTime(s string) (time.Time, error) {
	t, err := abstinence.ParseStoredTimestamp(s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
