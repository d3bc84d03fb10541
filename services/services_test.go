package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/daystatus"
	"habitTrackerAPI/internal/store/sqlite"
	"habitTrackerAPI/internal/types/notification"
)

type mockGoalQueue struct {
	mock.Mock
}

func (m *mockGoalQueue) Enqueue(job *GoalJob) bool {
	args := m.Called(job)
	return args.Bool(0)
}

type mockGoalStore struct {
	mock.Mock
}

func (m *mockGoalStore) UpdateSelectedGoal(ctx context.Context, activityID string, goal abstinence.Goal) error {
	args := m.Called(ctx, activityID, goal)
	return args.Error(0)
}

func (m *mockGoalStore) ListDevices(ctx context.Context, userID string) ([]notification.DeviceToken, error) {
	args := m.Called(ctx, userID)
	tokens, _ := args.Get(0).([]notification.DeviceToken)
	return tokens, args.Error(1)
}

type mockPushProvider struct {
	mock.Mock
}

func (m *mockPushProvider) SendPush(ctx context.Context, tokens []notification.DeviceToken, title, body string, data map[string]any) error {
	args := m.Called(ctx, tokens, title, body, data)
	return args.Error(0)
}

// clock is a settable time source shared by the services under test.
type clock struct {
	t time.Time
}

func (c *clock) Now() time.Time { return c.t }

type testEnv struct {
	store      *sqlite.Store
	clock      *clock
	goals      *mockGoalQueue
	users      *UserService
	activities *ActivityService
	events     *EventService
	dayStatus  *DayStatusService
}

func newTestEnv(t *testing.T, start time.Time) *testEnv {
	t.Helper()

	s := sqlite.NewTestStore(t)
	c := &clock{t: start}
	goals := &mockGoalQueue{}

	users := NewUserService(s, "UTC")
	activities := NewActivityService(s, users, goals)
	activities.now = c.Now
	events := NewEventService(s, users)
	events.now = c.Now
	reconciler := daystatus.New(s).WithClock(c.Now)

	return &testEnv{
		store:      s,
		clock:      c,
		goals:      goals,
		users:      users,
		activities: activities,
		events:     events,
		dayStatus:  NewDayStatusService(s, users, reconciler),
	}
}

func (e *testEnv) setTimezone(t *testing.T, clerkID, tz string) {
	t.Helper()
	_, err := e.users.UpdatePreferences(context.Background(), clerkID, userPrefs(tz))
	require.NoError(t, err)
}

func ptr[T any](v T) *T { return &v }
