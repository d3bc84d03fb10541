package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/activity"
)

const activityColumns = `
	id, user_id, name, type, color, icon, archived, display_order,
	allow_multiple_entries_per_day, selected_goal_name, selected_goal_hours,
	abstinence_text, use_default_abstinence_text, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActivity(row rowScanner) (*activity.Activity, error) {
	var (
		a                   activity.Activity
		kind                string
		icon, abstText      sql.NullString
		goalName            sql.NullString
		goalHours           sql.NullFloat64
		createdAt, updateAt string
	)

	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name, &kind, &a.Color, &icon, &a.Archived, &a.DisplayOrder,
		&a.AllowMultiplePerDay, &goalName, &goalHours,
		&abstText, &a.UseDefaultAbstinenceText, &createdAt, &updateAt,
	)
	if err != nil {
		return nil, err
	}

	a.Kind = activity.Kind(kind)
	if icon.Valid {
		a.Icon = &icon.String
	}
	if abstText.Valid {
		a.AbstinenceText = &abstText.String
	}
	a.SelectedGoal = goalFromColumns(goalName, goalHours)

	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.UpdatedAt, err = parseTime(updateAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func goalFromColumns(name sql.NullString, hours sql.NullFloat64) *abstinence.Goal {
	if !name.Valid || !hours.Valid || hours.Float64 <= 0 {
		return nil
	}
	return &abstinence.Goal{Name: name.String, Hours: hours.Float64}
}

func goalColumns(g *abstinence.Goal) (any, any) {
	if g == nil {
		return nil, nil
	}
	return g.Name, g.Hours
}

func (s *Store) CreateActivity(ctx context.Context, a *activity.Activity) error {
	query := `
		INSERT INTO activities (` + activityColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(display_order), -1) + 1 FROM activities WHERE user_id = ?),
			?, ?, ?, ?, ?, ?, ?)
		RETURNING display_order
	`

	goalName, goalHours := goalColumns(a.SelectedGoal)
	err := s.db.QueryRowContext(ctx, query,
		a.ID, a.OwnerID, a.Name, string(a.Kind), a.Color, a.Icon, a.Archived,
		a.OwnerID,
		a.AllowMultiplePerDay, goalName, goalHours,
		a.AbstinenceText, a.UseDefaultAbstinenceText, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	).Scan(&a.DisplayOrder)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (s *Store) GetActivity(ctx context.Context, id, ownerID string, includeArchived bool) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = ? AND user_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}

	a, err := scanActivity(s.db.QueryRowContext(ctx, query, id, ownerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

func (s *Store) ListActivities(ctx context.Context, ownerID string, includeArchived bool) ([]activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = ?`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY display_order ASC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []activity.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, *a)
	}
	return activities, rows.Err()
}

func (s *Store) UpdateActivity(ctx context.Context, a *activity.Activity) error {
	query := `
		UPDATE activities
		SET name = ?, type = ?, color = ?, icon = ?, display_order = ?,
			allow_multiple_entries_per_day = ?, selected_goal_name = ?, selected_goal_hours = ?,
			abstinence_text = ?, use_default_abstinence_text = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`

	a.UpdatedAt = time.Now().UTC()
	goalName, goalHours := goalColumns(a.SelectedGoal)
	res, err := s.db.ExecContext(ctx, query,
		a.Name, string(a.Kind), a.Color, a.Icon, a.DisplayOrder,
		a.AllowMultiplePerDay, goalName, goalHours,
		a.AbstinenceText, a.UseDefaultAbstinenceText, formatTime(a.UpdatedAt),
		a.ID, a.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) SetArchived(ctx context.Context, id, ownerID string, archived bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE activities SET archived = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		archived, formatTime(time.Now()), id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to archive activity: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) UpdateSelectedGoal(ctx context.Context, activityID string, goal abstinence.Goal) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE activities SET selected_goal_name = ?, selected_goal_hours = ?, updated_at = ? WHERE id = ?`,
		goal.Name, goal.Hours, formatTime(time.Now()), activityID,
	)
	if err != nil {
		return fmt.Errorf("failed to update selected goal: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
