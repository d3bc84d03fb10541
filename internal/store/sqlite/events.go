package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/event"
)

// Range filters go through julianday() so legacy rows written as
// "YYYY-MM-DD HH:MM:SS" compare correctly with RFC 3339 values.
const inRange = `julianday(e.occurred_at) >= julianday(?) AND julianday(e.occurred_at) < julianday(?)`

func scanEvent(row rowScanner, withActivity bool) (*event.Event, error) {
	var (
		e                     event.Event
		note                  sql.NullString
		occurredAt, createdAt string
		name, kind            sql.NullString
	)

	dest := []any{&e.ID, &e.ActivityID, &occurredAt, &note, &createdAt}
	if withActivity {
		dest = append(dest, &name, &kind)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if note.Valid {
		e.Note = &note.String
	}
	e.ActivityName = name.String
	e.ActivityKind = kind.String

	var err error
	if e.Timestamp, err = parseTime(occurredAt); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) InsertEvent(ctx context.Context, e *event.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, activity_id, occurred_at, note, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.ActivityID, formatTime(e.Timestamp), e.Note, formatTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id, ownerID string) (*event.Event, error) {
	query := `
		SELECT e.id, e.activity_id, e.occurred_at, e.note, e.created_at, a.name, a.type
		FROM events e
		JOIN activities a ON a.id = e.activity_id
		WHERE e.id = ? AND a.user_id = ?
	`

	e, err := scanEvent(s.db.QueryRowContext(ctx, query, id, ownerID), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, e *event.Event) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET occurred_at = ?, note = ? WHERE id = ?`,
		formatTime(e.Timestamp), e.Note, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteEvents(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM events WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) DeleteEventsInRange(ctx context.Context, activityID string, from, to time.Time) (int64, error) {
	query := `DELETE FROM events WHERE id IN (SELECT e.id FROM events e WHERE e.activity_id = ? AND ` + inRange + `)`

	res, err := s.db.ExecContext(ctx, query, activityID, formatTime(from), formatTime(to))
	if err != nil {
		return 0, fmt.Errorf("failed to delete events for day: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) CountEventsInRange(ctx context.Context, activityID string, from, to time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM events e WHERE e.activity_id = ? AND ` + inRange

	var count int
	if err := s.db.QueryRowContext(ctx, query, activityID, formatTime(from), formatTime(to)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (s *Store) ListEventsInRange(ctx context.Context, activityID string, from, to time.Time) ([]event.Event, error) {
	query := `
		SELECT e.id, e.activity_id, e.occurred_at, e.note, e.created_at
		FROM events e
		WHERE e.activity_id = ? AND ` + inRange + `
		ORDER BY julianday(e.created_at) ASC, julianday(e.occurred_at) ASC, e.rowid ASC
	`
	return s.queryEvents(ctx, false, query, activityID, formatTime(from), formatTime(to))
}

func (s *Store) ListEventTimes(ctx context.Context, activityID string) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT occurred_at FROM events WHERE activity_id = ?`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event times: %w", err)
	}
	defer rows.Close()

	times := []time.Time{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan event time: %w", err)
		}
		t, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (s *Store) LatestEvent(ctx context.Context, activityID string) (*event.Event, error) {
	query := `
		SELECT e.id, e.activity_id, e.occurred_at, e.note, e.created_at
		FROM events e
		WHERE e.activity_id = ?
		ORDER BY julianday(e.occurred_at) DESC, e.rowid DESC
		LIMIT 1
	`

	e, err := scanEvent(s.db.QueryRowContext(ctx, query, activityID), false)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest event: %w", err)
	}
	return e, nil
}

func (s *Store) ListEvents(ctx context.Context, ownerID string, opts event.ListOptions) ([]event.Event, error) {
	query := `
		SELECT e.id, e.activity_id, e.occurred_at, e.note, e.created_at, a.name, a.type
		FROM events e
		JOIN activities a ON a.id = e.activity_id
		WHERE a.user_id = ?`
	args := []any{ownerID}

	if opts.ActivityID != "" {
		query += ` AND e.activity_id = ?`
		args = append(args, opts.ActivityID)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}
	query += ` ORDER BY julianday(e.occurred_at) DESC, e.rowid DESC LIMIT ? OFFSET ?`
	args = append(args, limit, opts.Offset)

	events, err := s.queryEvents(ctx, true, query, args...)
	if err != nil {
		return nil, err
	}
	if !opts.IncludeActivity {
		for i := range events {
			events[i].ActivityName, events[i].ActivityKind = "", ""
		}
	}
	return events, nil
}

func (s *Store) ListOwnerEventsInRange(ctx context.Context, ownerID string, from, to time.Time) ([]event.Event, error) {
	query := `
		SELECT e.id, e.activity_id, e.occurred_at, e.note, e.created_at, a.name, a.type
		FROM events e
		JOIN activities a ON a.id = e.activity_id
		WHERE a.user_id = ? AND a.archived = 0 AND ` + inRange + `
		ORDER BY julianday(e.occurred_at) DESC, e.rowid DESC
	`
	return s.queryEvents(ctx, true, query, ownerID, formatTime(from), formatTime(to))
}

func (s *Store) queryEvents(ctx context.Context, withActivity bool, query string, args ...any) ([]event.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []event.Event{}
	for rows.Next() {
		e, err := scanEvent(rows, withActivity)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}
