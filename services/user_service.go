package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"habitTrackerAPI/internal/logger"
	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/notification"
	"habitTrackerAPI/internal/types/user"
	"habitTrackerAPI/internal/validation"
	"habitTrackerAPI/utils"
)

type userStore interface {
	store.UserStore
	store.DeviceStore
}

type UserService struct {
	store           userStore
	defaultTimezone string
}

func NewUserService(s userStore, defaultTimezone string) *UserService {
	return &UserService{store: s, defaultTimezone: defaultTimezone}
}

// GetProfile returns the user, creating the record on first sight.
func (s *UserService) GetProfile(ctx context.Context, clerkID string) (*user.User, error) {
	u, err := s.store.EnsureUser(ctx, clerkID, s.defaultTimezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// Locate returns the user together with the zone that defines their
// calendar days. An unloadable stored zone falls back to UTC.
func (s *UserService) Locate(ctx context.Context, clerkID string) (*user.User, *time.Location, error) {
	u, err := s.GetProfile(ctx, clerkID)
	if err != nil {
		return nil, nil, err
	}

	loc, err := utils.LoadLocation(u.Timezone)
	if err != nil {
		logger.Warn("User Service: unusable timezone, using UTC", "clerk_id", clerkID, "timezone", u.Timezone)
		loc = time.UTC
	}
	return u, loc, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, clerkID string, req *user.UpdatePreferencesRequest) (*user.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	u, err := s.GetProfile(ctx, clerkID)
	if err != nil {
		return nil, err
	}

	if req.DefaultAbstinenceText != nil {
		u.DefaultAbstinenceText = *req.DefaultAbstinenceText
	}
	if req.Timezone != nil {
		u.Timezone = *req.Timezone
	}

	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}
	return u, nil
}

// DeleteUser removes the account and everything it owns. Deleting an
// unknown user is not an error so webhook redeliveries stay harmless.
func (s *UserService) DeleteUser(ctx context.Context, clerkID string) error {
	err := s.store.DeleteUser(ctx, clerkID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *UserService) RegisterDevice(ctx context.Context, clerkID string, req *notification.RegisterDeviceRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	if _, err := s.GetProfile(ctx, clerkID); err != nil {
		return err
	}

	now := time.Now().UTC()
	token := notification.DeviceToken{
		Token:    req.Token,
		Platform: req.Platform,
		AddedAt:  now,
		LastUsed: now,
	}
	if err := s.store.UpsertDevice(ctx, clerkID, token); err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

// UnregisterDevice reports whether a token was removed.
func (s *UserService) UnregisterDevice(ctx context.Context, clerkID string, req *notification.UnregisterDeviceRequest) (bool, error) {
	if err := validation.Struct(req); err != nil {
		return false, err
	}

	n, err := s.store.DeleteDevice(ctx, clerkID, req.Token)
	if err != nil {
		return false, fmt.Errorf("failed to remove device: %w", err)
	}
	return n > 0, nil
}

func (s *UserService) ListDevices(ctx context.Context, clerkID string) ([]notification.DeviceToken, error) {
	tokens, err := s.store.ListDevices(ctx, clerkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return tokens, nil
}
