package abstinence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{12 * time.Second, "12s"},
		{45*time.Minute + 12*time.Second, "45m 12s"},
		{time.Hour, "1h 0m 0s"},
		{25*time.Hour + 61*time.Second, "1d 1h 1m 1s"},
		{36 * time.Hour, "1d 12h 0m 0s"},
		{400 * 24 * time.Hour, "400d 0h 0m 0s"},
		{-time.Minute, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElapsed(tt.d))
		})
	}
}

func TestElapsed_FlooredAndClamped(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 59*time.Second, Elapsed(anchor, anchor.Add(59*time.Second+999*time.Millisecond)))
	assert.Equal(t, time.Duration(0), Elapsed(anchor, anchor.Add(-time.Hour)))
}

func TestParseStoredTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-01T10:00:00Z", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:00:00+02:00", time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:00:00.123Z", time.Date(2024, 1, 1, 10, 0, 0, 123000000, time.UTC)},
		{"2024-01-01 10:00:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-01-01T10:00:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-01-01 10:00:00.5", time.Date(2024, 1, 1, 10, 0, 0, 500000000, time.UTC)},
		{"2024-01-01 10:00:00+00:00", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStoredTimestamp(tt.in)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}

	_, err := ParseStoredTimestamp("yesterday")
	assert.Error(t, err)
}

func TestCompute_NoEventsSinceCreation(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)

	display, sel := Compute(created, now, nil)

	assert.Equal(t, "1d 12h 0m 0s", display.TimeString)
	assert.Equal(t, "3 Days", display.CurrentGoal)
	assert.Equal(t, 36.0, display.TotalHours)
	assert.Equal(t, 50.0, display.ProgressPercent)
	assert.True(t, sel.Changed)
	assert.True(t, created.Equal(display.Anchor))
}

func TestCompute_HalfHourPastDayAndAHalf(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := anchor.Add(36*time.Hour + 30*time.Minute)

	display, _ := Compute(anchor, now, nil)

	assert.Equal(t, "1d 12h 30m 0s", display.TimeString)
	assert.Equal(t, 36.5, display.TotalHours)
	assert.Equal(t, "3 Days", display.CurrentGoal)
	assert.InDelta(t, 50.69, display.ProgressPercent, 0.001)
}

func TestCompute_LegacyAnchorReadAsUTC(t *testing.T) {
	anchor, err := ParseStoredTimestamp("2024-03-01 08:00:00")
	require.NoError(t, err)

	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, berlin) // 09:00 UTC

	display, _ := Compute(anchor, now, nil)
	assert.Equal(t, "1h 0m 0s", display.TimeString)
}

func TestCompute_ReachedGoalAdvances(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	selected := &Goal{Name: "24 Hours", Hours: 24}

	display, sel := Compute(anchor, anchor.Add(30*time.Hour), selected)
	assert.Equal(t, "3 Days", display.CurrentGoal)
	assert.Equal(t, GoalStateCompleted, sel.Previous)
	assert.Equal(t, GoalStateCompleted, display.PreviousGoalState)
	assert.Equal(t, GoalStateActive, display.GoalState)
	assert.True(t, sel.Changed)
}

func TestCompute_PreviousGoalState(t *testing.T) {
	anchor := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	display, _ := Compute(anchor, anchor.Add(time.Hour), nil)
	assert.Equal(t, GoalStateNone, display.PreviousGoalState)

	display, _ = Compute(anchor, anchor.Add(time.Hour), &Goal{Name: "24 Hours", Hours: 24})
	assert.Equal(t, GoalStateActive, display.PreviousGoalState)

	top := TopGoal()
	display, _ = Compute(anchor, anchor.Add(time.Duration(top.Hours+1)*time.Hour), &top)
	assert.Equal(t, GoalStatePinned, display.PreviousGoalState)
	assert.Equal(t, GoalStatePinned, display.GoalState)
}
