package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/event"
)

const (
	eventColumns         = `e.id, e.activity_id, e.occurred_at, e.note, e.created_at`
	eventActivityColumns = eventColumns + `, a.name, a.type`
)

func scanEvent(row pgx.Row, withActivity bool) (*event.Event, error) {
	var e event.Event

	dest := []any{&e.ID, &e.ActivityID, &e.Timestamp, &e.Note, &e.CreatedAt}
	if withActivity {
		dest = append(dest, &e.ActivityName, &e.ActivityKind)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	e.Timestamp = e.Timestamp.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	return &e, nil
}

func (s *Store) InsertEvent(ctx context.Context, e *event.Event) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO events (id, activity_id, occurred_at, note, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.ActivityID, e.Timestamp, e.Note, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *Store) GetEvent(ctx context.Context, id, ownerID string) (*event.Event, error) {
	query := `
		SELECT ` + eventActivityColumns + `
		FROM events e
		JOIN activities a ON a.id = e.activity_id
		WHERE e.id = $1 AND a.user_id = $2
	`

	e, err := scanEvent(s.pool.QueryRow(ctx, query, id, ownerID), true)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (s *Store) UpdateEvent(ctx context.Context, e *event.Event) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE events SET occurred_at = $1, note = $2 WHERE id = $3`,
		e.Timestamp, e.Note, e.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) DeleteEvents(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = ANY($1)`, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) DeleteEventsInRange(ctx context.Context, activityID string, from, to time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM events WHERE activity_id = $1 AND occurred_at >= $2 AND occurred_at < $3`,
		activityID, from, to,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete events for day: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) CountEventsInRange(ctx context.Context, activityID string, from, to time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM events WHERE activity_id = $1 AND occurred_at >= $2 AND occurred_at < $3`,
		activityID, from, to,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

func (s *Store) ListEventsInRange(ctx context.Context, activityID string, from, to time.Time) ([]event.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE e.activity_id = $1 AND e.occurred_at >= $2 AND e.occurred_at < $3
		ORDER BY e.created_at ASC, e.occurred_at ASC, e.seq ASC
	`
	return s.queryEvents(ctx, false, query, activityID, from, to)
}

func (s *Store) ListEventTimes(ctx context.Context, activityID string) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `SELECT occurred_at FROM events WHERE activity_id = $1`, activityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list event times: %w", err)
	}
	defer rows.Close()

	times := []time.Time{}
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan event time: %w", err)
		}
		times = append(times, t.UTC())
	}
	return times, rows.Err()
}

func (s *Store) LatestEvent(ctx context.Context, activityID string) (*event.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events e
		WHERE e.activity_id = $1
		ORDER BY e.occurred_at DESC, e.seq DESC
		LIMIT 1
	`

	e, err := scanEvent(s.pool.QueryRow(ctx, query, activityID), false)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest event: %w", err)
	}
	return e, nil
}

func (s *Store) ListEvents(ctx context.Context, ownerID string, opts event.ListOptions) ([]event.Event, error) {
	query := `
		SELECT ` + eventActivityColumns + `
		FROM events e
		JOIN activities a ON a.id = e.activity_id
		WHERE a.user_id = $1`
	args := []any{ownerID}

	if opts.ActivityID != "" {
		args = append(args, opts.ActivityID)
		query += fmt.Sprintf(` AND e.activity_id = $%d`, len(args))
	}

	query += ` ORDER BY e.occurred_at DESC, e.seq DESC`
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	args = append(args, opts.Offset)
	query += fmt.Sprintf(` OFFSET $%d`, len(args))

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
		SELECT ` + eventActivityColumns + `
		FROM events e
		JOIN activities a ON a.id = e.activity_id
		WHERE a.user_id = $1 AND a.archived = FALSE
			AND e.occurred_at >= $2 AND e.occurred_at < $3
		ORDER BY e.occurred_at DESC, e.seq DESC
	`
	return s.queryEvents(ctx, true, query, ownerID, from, to)
}

func (s *Store) queryEvents(ctx context.Context, withActivity bool, query string, args ...any) ([]event.Event, error) {
	rows, err := s.pool.Query(ctx, query, args...)
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
