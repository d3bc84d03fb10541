package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/notification"
	"habitTrackerAPI/internal/types/user"
)

func (s *Store) EnsureUser(ctx context.Context, clerkID, timezone string) (*user.User, error) {
	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (clerk_id, default_abstinence_text, timezone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (clerk_id) DO NOTHING
	`, clerkID, user.DefaultAbstinenceText, timezone, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure user: %w", err)
	}
	return s.GetUser(ctx, clerkID)
}

func (s *Store) GetUser(ctx context.Context, clerkID string) (*user.User, error) {
	var (
		u                    user.User
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT clerk_id, default_abstinence_text, timezone, created_at, updated_at
		FROM users WHERE clerk_id = ?
	`, clerkID).Scan(&u.ClerkID, &u.DefaultAbstinenceText, &u.Timezone, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET default_abstinence_text = ?, timezone = ?, updated_at = ?
		WHERE clerk_id = ?
	`, u.DefaultAbstinenceText, u.Timezone, formatTime(u.UpdatedAt), u.ClerkID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteUser(ctx context.Context, clerkID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE clerk_id = ?`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) UpsertDevice(ctx context.Context, userID string, token notification.DeviceToken) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO device_tokens (user_id, token, platform, added_at, last_used)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, token) DO UPDATE SET
			platform = excluded.platform,
			last_used = excluded.last_used
	`, userID, token.Token, token.Platform, formatTime(token.AddedAt), formatTime(token.LastUsed))
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *Store) DeleteDevice(ctx context.Context, userID, token string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM device_tokens WHERE user_id = ? AND token = ?`, userID, token)
	if err != nil {
		return 0, fmt.Errorf("failed to remove device: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) ListDevices(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, platform, added_at, last_used
		FROM device_tokens WHERE user_id = ?
		ORDER BY added_at ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	tokens := []notification.DeviceToken{}
	for rows.Next() {
		var (
			t                 notification.DeviceToken
			addedAt, lastUsed string
		)
		if err := rows.Scan(&t.Token, &t.Platform, &addedAt, &lastUsed); err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		if t.AddedAt, err = parseTime(addedAt); err != nil {
			return nil, err
		}
		if t.LastUsed, err = parseTime(lastUsed); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}
