package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/activity"
)

const activityColumns = `
	id, user_id, name, type, color, icon, archived, display_order,
	allow_multiple_entries_per_day, selected_goal_name, selected_goal_hours,
	abstinence_text, use_default_abstinence_text, created_at, updated_at`

func scanActivity(row pgx.Row) (*activity.Activity, error) {
	var (
		a         activity.Activity
		kind      string
		goalName  *string
		goalHours *float64
	)

	err := row.Scan(
		&a.ID, &a.OwnerID, &a.Name, &kind, &a.Color, &a.Icon, &a.Archived, &a.DisplayOrder,
		&a.AllowMultiplePerDay, &goalName, &goalHours,
		&a.AbstinenceText, &a.UseDefaultAbstinenceText, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Kind = activity.Kind(kind)
	if goalName != nil && goalHours != nil && *goalHours > 0 {
		a.SelectedGoal = &abstinence.Goal{Name: *goalName, Hours: *goalHours}
	}
	return &a, nil
}

func goalColumns(g *abstinence.Goal) (*string, *float64) {
	if g == nil {
		return nil, nil
	}
	return &g.Name, &g.Hours
}

func (s *Store) CreateActivity(ctx context.Context, a *activity.Activity) error {
	query := `
		INSERT INTO activities (` + activityColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
			(SELECT COALESCE(MAX(display_order), -1) + 1 FROM activities WHERE user_id = $2),
			$8, $9, $10, $11, $12, $13, $14)
		RETURNING display_order
	`

	goalName, goalHours := goalColumns(a.SelectedGoal)
	err := s.pool.QueryRow(ctx, query,
		a.ID, a.OwnerID, a.Name, string(a.Kind), a.Color, a.Icon, a.Archived,
		a.AllowMultiplePerDay, goalName, goalHours,
		a.AbstinenceText, a.UseDefaultAbstinenceText, a.CreatedAt, a.UpdatedAt,
	).Scan(&a.DisplayOrder)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}
	return nil
}

func (s *Store) GetActivity(ctx context.Context, id, ownerID string, includeArchived bool) (*activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE id = $1 AND user_id = $2`
	if !includeArchived {
		query += ` AND archived = FALSE`
	}

	a, err := scanActivity(s.pool.QueryRow(ctx, query, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return a, nil
}

func (s *Store) ListActivities(ctx context.Context, ownerID string, includeArchived bool) ([]activity.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id = $1`
	if !includeArchived {
		query += ` AND archived = FALSE`
	}
	query += ` ORDER BY display_order ASC, created_at ASC`

	rows, err := s.pool.Query(ctx, query, ownerID)
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
		SET name = $1, type = $2, color = $3, icon = $4, display_order = $5,
			allow_multiple_entries_per_day = $6, selected_goal_name = $7, selected_goal_hours = $8,
			abstinence_text = $9, use_default_abstinence_text = $10, updated_at = $11
		WHERE id = $12 AND user_id = $13
	`

	a.UpdatedAt = time.Now().UTC()
	goalName, goalHours := goalColumns(a.SelectedGoal)
	tag, err := s.pool.Exec(ctx, query,
		a.Name, string(a.Kind), a.Color, a.Icon, a.DisplayOrder,
		a.AllowMultiplePerDay, goalName, goalHours,
		a.AbstinenceText, a.UseDefaultAbstinenceText, a.UpdatedAt,
		a.ID, a.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("failed to update activity: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) SetArchived(ctx context.Context, id, ownerID string, archived bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE activities SET archived = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
		archived, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to archive activity: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) UpdateSelectedGoal(ctx context.Context, activityID string, goal abstinence.Goal) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE activities SET selected_goal_name = $1, selected_goal_hours = $2, updated_at = NOW() WHERE id = $3`,
		goal.Name, goal.Hours, activityID,
	)
	if err != nil {
		return fmt.Errorf("failed to update selected goal: %w", err)
	}
	return requireAffected(tag)
}
