package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitTrackerAPI/internal/types/notification"
	"habitTrackerAPI/internal/types/user"
	"habitTrackerAPI/internal/validation"
)

func TestUserService_ProfileAndPreferences(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()

	u, err := env.users.GetProfile(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "UTC", u.Timezone)
	assert.Equal(t, user.DefaultAbstinenceText, u.DefaultAbstinenceText)

	u, err = env.users.UpdatePreferences(ctx, "user_1", &user.UpdatePreferencesRequest{
		DefaultAbstinenceText: ptr("Clean for"),
		Timezone:              ptr("Europe/Berlin"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Clean for", u.DefaultAbstinenceText)

	_, loc, err := env.users.Locate(ctx, "user_1")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())

	_, err = env.users.UpdatePreferences(ctx, "user_1", &user.UpdatePreferencesRequest{Timezone: ptr("Nowhere/Special")})
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestUserService_Devices(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()

	require.NoError(t, env.users.RegisterDevice(ctx, "user_1", &notification.RegisterDeviceRequest{Token: "tok", Platform: "android"}))
	err := env.users.RegisterDevice(ctx, "user_1", &notification.RegisterDeviceRequest{Token: "tok", Platform: "blackberry"})
	assert.ErrorIs(t, err, validation.ErrInvalid)

	devices, err := env.users.ListDevices(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.WithinDuration(t, time.Now(), devices[0].AddedAt, time.Minute)

	removed, err := env.users.UnregisterDevice(ctx, "user_1", &notification.UnregisterDeviceRequest{Token: "tok"})
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = env.users.UnregisterDevice(ctx, "user_1", &notification.UnregisterDeviceRequest{Token: "tok"})
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestUserService_DeleteIsIdempotent(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()
	createHabit(t, env, "user_1", false)

	require.NoError(t, env.users.DeleteUser(ctx, "user_1"))
	require.NoError(t, env.users.DeleteUser(ctx, "user_1"))
}
