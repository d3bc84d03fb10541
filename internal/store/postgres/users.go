package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/notification"
	"habitTrackerAPI/internal/types/user"
)

func (s *Store) EnsureUser(ctx context.Context, clerkID, timezone string) (*user.User, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (clerk_id, default_abstinence_text, timezone)
		VALUES ($1, $2, $3)
		ON CONFLICT (clerk_id) DO NOTHING
	`, clerkID, user.DefaultAbstinenceText, timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return s.GetUser(ctx, clerkID)
}

func (s *Store) GetUser(ctx context.Context, clerkID string) (*user.User, error) {
	var u user.User
	err := s.pool.QueryRow(ctx, `
		SELECT clerk_id, default_abstinence_text, timezone, created_at, updated_at
		FROM users WHERE clerk_id = $1
	`, clerkID).Scan(&u.ClerkID, &u.DefaultAbstinenceText, &u.Timezone, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET default_abstinence_text = $1, timezone = $2, updated_at = $3
		WHERE clerk_id = $4
	`, u.DefaultAbstinenceText, u.Timezone, u.UpdatedAt, u.ClerkID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) DeleteUser(ctx context.Context, clerkID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(tag)
}

func (s *Store) UpsertDevice(ctx context.Context, userID string, token notification.DeviceToken) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, added_at, last_used)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, token) DO UPDATE SET
			platform = EXCLUDED.platform,
			last_used = EXCLUDED.last_used
	`, userID, token.Token, token.Platform, token.AddedAt, token.LastUsed)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *Store) DeleteDevice(ctx context.Context, userID, token string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM device_tokens WHERE user_id = $1 AND token = $2`, userID, token)
	if err != nil {
		return 0, fmt.Errorf("failed to remove device: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) ListDevices(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT token, platform, added_at, last_used
		FROM device_tokens WHERE user_id = $1
		ORDER BY added_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	tokens := []notification.DeviceToken{}
	for rows.Next() {
		var t notification.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform, &t.AddedAt, &t.LastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
