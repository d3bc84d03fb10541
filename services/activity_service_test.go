package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"habitTrackerAPI/internal/abstinence"
	"habitTrackerAPI/internal/store"
	"habitTrackerAPI/internal/types/activity"
	"habitTrackerAPI/internal/types/event"
	"habitTrackerAPI/internal/types/user"
	"habitTrackerAPI/internal/validation"
)

var newYear = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func userPrefs(tz string) *user.UpdatePreferencesRequest {
	return &user.UpdatePreferencesRequest{Timezone: &tz}
}

func createQuit(t *testing.T, env *testEnv, clerkID string) *activity.Activity {
	t.Helper()
	a, err := env.activities.CreateActivity(context.Background(), clerkID, &activity.CreateActivityRequest{
		Name: "No smoking",
		Kind: activity.KindQuit,
	})
	require.NoError(t, err)
	return a
}

func TestCreateActivity_Defaults(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()

	quit, err := env.activities.CreateActivity(ctx, "user_1", &activity.CreateActivityRequest{
		Name:                "Sugar",
		Kind:                activity.KindQuit,
		AllowMultiplePerDay: true,
	})
	require.NoError(t, err)
	assert.Equal(t, activity.DefaultColor, quit.Color)
	assert.False(t, quit.AllowMultiplePerDay, "quit activities are single entry")
	assert.True(t, quit.UseDefaultAbstinenceText)

	habit, err := env.activities.CreateActivity(ctx, "user_1", &activity.CreateActivityRequest{
		Name:                "Water",
		Kind:                activity.KindHabit,
		Color:               ptr("#00ff00"),
		AllowMultiplePerDay: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "#00ff00", habit.Color)
	assert.True(t, habit.AllowMultiplePerDay)
	assert.Equal(t, 1, habit.DisplayOrder)

	_, err = env.activities.CreateActivity(ctx, "user_1", &activity.CreateActivityRequest{Name: "", Kind: "hobby"})
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestTimer_EndToEnd(t *testing.T) {
	env := newTestEnv(t, newYear)
	a := createQuit(t, env, "user_1")

	env.goals.On("Enqueue", mock.MatchedBy(func(job *GoalJob) bool {
		return job.ActivityID == a.ID && job.Goal.Name == "3 Days" && job.Reached == nil
	})).Return(true).Once()

	env.clock.t = time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)
	display, err := env.activities.GetTimer(context.Background(), "user_1", a.ID)
	require.NoError(t, err)

	assert.Equal(t, "1d 12h 0m 0s", display.TimeString)
	assert.Equal(t, "3 Days", display.CurrentGoal)
	assert.Equal(t, 50.0, display.ProgressPercent)
	assert.Equal(t, 36.0, display.TotalHours)
	assert.Equal(t, user.DefaultAbstinenceText, display.Label)
	env.goals.AssertExpectations(t)
}

func TestTimer_ThirtySixAndAHalfHours(t *testing.T) {
	env := newTestEnv(t, newYear)
	a := createQuit(t, env, "user_1")
	env.goals.On("Enqueue", mock.Anything).Return(true)

	env.clock.t = newYear.Add(36*time.Hour + 30*time.Minute)
	display, err := env.activities.GetTimer(context.Background(), "user_1", a.ID)
	require.NoError(t, err)

	assert.Equal(t, "1d 12h 30m 0s", display.TimeString)
	assert.Equal(t, "3 Days", display.CurrentGoal)
	assert.Equal(t, 50.69, display.ProgressPercent)
}

func TestTimer_AnchorsOnLatestEvent(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()
	a := createQuit(t, env, "user_1")
	env.goals.On("Enqueue", mock.Anything).Return(true)

	env.clock.t = newYear.Add(48 * time.Hour)
	_, err := env.events.CreateEvent(ctx, "user_1", &event.CreateEventRequest{ActivityID: a.ID})
	require.NoError(t, err)

	env.clock.t = env.clock.t.Add(45*time.Minute + 12*time.Second)
	display, err := env.activities.GetTimer(ctx, "user_1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "45m 12s", display.TimeString)
	assert.Equal(t, "24 Hours", display.CurrentGoal)
}

func TestTimer_RejectsHabits(t *testing.T) {
	env := newTestEnv(t, newYear)
	habit, err := env.activities.CreateActivity(context.Background(), "user_1", &activity.CreateActivityRequest{
		Name: "Read", Kind: activity.KindHabit,
	})
	require.NoError(t, err)

	_, err = env.activities.GetTimer(context.Background(), "user_1", habit.ID)
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestGoal_CompletedGoalAdvancesWithMilestone(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()
	a := createQuit(t, env, "user_1")

	env.clock.t = newYear.Add(time.Hour)
	_, err := env.activities.SetGoal(ctx, "user_1", a.ID, &activity.UpdateGoalRequest{GoalName: "24 Hours", GoalHours: 24})
	require.NoError(t, err)

	env.goals.On("Enqueue", mock.MatchedBy(func(job *GoalJob) bool {
		return job.Goal.Name == "3 Days" && job.Reached != nil && job.Reached.Name == "24 Hours" && job.OwnerID == "user_1"
	})).Return(true).Once()

	env.clock.t = newYear.Add(30 * time.Hour)
	display, err := env.activities.GetTimer(ctx, "user_1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "3 Days", display.CurrentGoal)
	assert.InDelta(t, 41.67, display.ProgressPercent, 0.01)
	env.goals.AssertExpectations(t)
}

func TestGoal_PinnedPastTop(t *testing.T) {
	env := newTestEnv(t, newYear)
	a := createQuit(t, env, "user_1")
	env.goals.On("Enqueue", mock.Anything).Return(true)

	env.clock.t = newYear.Add(50000 * time.Hour)
	display, err := env.activities.GetTimer(context.Background(), "user_1", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "5 Years", display.CurrentGoal)
	assert.Equal(t, 100.0, display.ProgressPercent)
	assert.Equal(t, abstinence.GoalStatePinned, display.GoalState)
}

func TestSetGoal_Validation(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()
	a := createQuit(t, env, "user_1")
	env.goals.On("Enqueue", mock.Anything).Return(true).Maybe()

	env.clock.t = newYear.Add(100 * time.Hour)

	_, err := env.activities.SetGoal(ctx, "user_1", a.ID, &activity.UpdateGoalRequest{GoalName: "3 Days", GoalHours: 72})
	assert.ErrorIs(t, err, abstinence.ErrGoalCompleted)

	_, err = env.activities.SetGoal(ctx, "user_1", a.ID, &activity.UpdateGoalRequest{GoalName: "Forever", GoalHours: 1})
	assert.ErrorIs(t, err, abstinence.ErrUnknownGoal)

	display, err := env.activities.SetGoal(ctx, "user_1", a.ID, &activity.UpdateGoalRequest{GoalName: "1 Month", GoalHours: 720})
	require.NoError(t, err)
	assert.Equal(t, "1 Month", display.CurrentGoal)

	stored, err := env.store.GetActivity(ctx, a.ID, "user_1", false)
	require.NoError(t, err)
	require.NotNil(t, stored.SelectedGoal)
	assert.Equal(t, "1 Month", stored.SelectedGoal.Name)

	display, err = env.activities.SetGoal(ctx, "user_1", a.ID, &activity.UpdateGoalRequest{GoalName: "2 Weeks"})
	require.NoError(t, err, "hours are optional")
	assert.Equal(t, "2 Weeks", display.CurrentGoal)
	assert.Equal(t, 336.0, display.GoalHours)
}

func TestGoalOptions(t *testing.T) {
	env := newTestEnv(t, newYear)
	a := createQuit(t, env, "user_1")
	env.goals.On("Enqueue", mock.Anything).Return(true)

	env.clock.t = newYear.Add(80 * time.Hour)
	opts, err := env.activities.GetGoalOptions(context.Background(), "user_1", a.ID)
	require.NoError(t, err)
	require.Len(t, opts, len(abstinence.Ladder()))

	assert.True(t, opts[0].Completed)
	assert.True(t, opts[1].Completed)
	assert.False(t, opts[2].Completed)
	assert.True(t, opts[2].Selected, "1 Week is the auto-selected goal")
	env.goals.AssertCalled(t, "Enqueue", mock.Anything)
}

func TestUpdateActivity_KindSwitch(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()
	a := createQuit(t, env, "user_1")

	env.clock.t = newYear.Add(time.Hour)
	_, err := env.activities.SetGoal(ctx, "user_1", a.ID, &activity.UpdateGoalRequest{GoalName: "24 Hours", GoalHours: 24})
	require.NoError(t, err)

	updated, err := env.activities.UpdateActivity(ctx, "user_1", a.ID, &activity.UpdateActivityRequest{
		Kind:                ptr(activity.KindHabit),
		AllowMultiplePerDay: ptr(true),
	})
	require.NoError(t, err)
	assert.Nil(t, updated.SelectedGoal)
	assert.True(t, updated.AllowMultiplePerDay)

	updated, err = env.activities.UpdateActivity(ctx, "user_1", a.ID, &activity.UpdateActivityRequest{
		Kind: ptr(activity.KindQuit),
	})
	require.NoError(t, err)
	assert.False(t, updated.AllowMultiplePerDay)
}

func TestArchiveAndRestore(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()
	a := createQuit(t, env, "user_1")
	env.goals.On("Enqueue", mock.Anything).Return(true).Maybe()

	require.NoError(t, env.activities.ArchiveActivity(ctx, "user_1", a.ID))

	_, err := env.activities.GetActivity(ctx, "user_1", a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	views, err := env.activities.ListActivities(ctx, "user_1", activity.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, views)

	require.NoError(t, env.activities.RestoreActivity(ctx, "user_1", a.ID))
	views, err = env.activities.ListActivities(ctx, "user_1", activity.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, views, 1)

	assert.ErrorIs(t, env.activities.ArchiveActivity(ctx, "user_2", a.ID), store.ErrNotFound)
}

func TestGetActivity_HabitView(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	habit, err := env.activities.CreateActivity(ctx, "user_1", &activity.CreateActivityRequest{Name: "Read", Kind: activity.KindHabit})
	require.NoError(t, err)

	for _, ts := range []string{"2024-01-01T08:00:00Z", "2024-01-02T08:00:00Z", "2024-01-05T08:00:00Z"} {
		_, err := env.events.CreateEvent(ctx, "user_1", &event.CreateEventRequest{ActivityID: habit.ID, Timestamp: ptr(ts)})
		require.NoError(t, err)
	}

	view, err := env.activities.GetActivity(ctx, "user_1", habit.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Statistics)
	assert.Equal(t, 1, view.Statistics.CurrentStreak)
	assert.Equal(t, 2, view.Statistics.LongestStreak)
	assert.Equal(t, 3, view.Statistics.TotalEvents)

	require.NotNil(t, view.WeeklyLog)
	require.Len(t, view.WeeklyLog.Days, 7)
	assert.Equal(t, "2023-12-30", view.WeeklyLog.StartDate.String())
	assert.True(t, view.WeeklyLog.Days[6].Completed)
	assert.Nil(t, view.TimeDisplay)

	require.NotNil(t, view.LastEvent)
	assert.True(t, view.LastEvent.Timestamp.Equal(time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)))
}

func TestListActivities_OptionalBlocks(t *testing.T) {
	env := newTestEnv(t, newYear)
	ctx := context.Background()
	createQuit(t, env, "user_1")
	env.goals.On("Enqueue", mock.Anything).Return(true).Maybe()

	views, err := env.activities.ListActivities(ctx, "user_1", activity.ListOptions{})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Nil(t, views[0].Statistics)
	assert.Nil(t, views[0].LastEvent)
	require.NotNil(t, views[0].TimeDisplay, "quit activities always carry a timer")
	assert.Equal(t, user.DefaultAbstinenceText, views[0].AbstinenceLabel)

	views, err = env.activities.ListActivities(ctx, "user_1", activity.ListOptions{IncludeStats: true})
	require.NoError(t, err)
	require.NotNil(t, views[0].Statistics)
	assert.Zero(t, views[0].Statistics.TotalEvents)
}

func TestWeeklyLogAndCalendar_UseOwnerTimezone(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 10, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()
	env.setTimezone(t, "user_1", "Asia/Tokyo")

	habit, err := env.activities.CreateActivity(ctx, "user_1", &activity.CreateActivityRequest{Name: "Walk", Kind: activity.KindHabit})
	require.NoError(t, err)

	// 2024-02-09 20:00 UTC is already 2024-02-10 in Tokyo.
	_, err = env.events.CreateEvent(ctx, "user_1", &event.CreateEventRequest{ActivityID: habit.ID, Timestamp: ptr("2024-02-09T20:00:00Z")})
	require.NoError(t, err)

	log, err := env.activities.GetWeeklyLog(ctx, "user_1", habit.ID, "2024-02-10")
	require.NoError(t, err)
	assert.Equal(t, 1, log.Days[6].Count)
	assert.Zero(t, log.Days[5].Count)

	_, err = env.activities.GetWeeklyLog(ctx, "user_1", habit.ID, "02/10/2024")
	assert.ErrorIs(t, err, validation.ErrInvalid)

	cal, err := env.activities.GetCalendar(ctx, "user_1", habit.ID, 2024, 2)
	require.NoError(t, err)
	require.Len(t, cal.Days, 29)
	assert.True(t, cal.Days[9].Completed)
	assert.True(t, cal.Days[9].IsToday)
	assert.False(t, cal.Days[8].Completed)

	_, err = env.activities.GetCalendar(ctx, "user_1", habit.ID, 2024, 13)
	assert.ErrorIs(t, err, validation.ErrInvalid)
}

func TestGetStats_NotOwned(t *testing.T) {
	env := newTestEnv(t, newYear)
	a := createQuit(t, env, "user_1")

	_, err := env.activities.GetStats(context.Background(), "user_2", a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
