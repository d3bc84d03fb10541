package abstinence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLadder_Ascending(t *testing.T) {
	goals := Ladder()
	require.Len(t, goals, 10)
	for i := 1; i < len(goals); i++ {
		assert.Greater(t, goals[i].Hours, goals[i-1].Hours)
	}

	goals[0].Name = "mutated"
	assert.Equal(t, "24 Hours", Ladder()[0].Name)
}

func TestSelect_AutoAdvanceWithoutSelection(t *testing.T) {
	sel := Select(30, nil)

	assert.Equal(t, "3 Days", sel.Goal.Name)
	assert.Equal(t, 72.0, sel.Goal.Hours)
	assert.InDelta(t, 41.7, sel.ProgressPercent, 0.05)
	assert.Equal(t, GoalStateNone, sel.Previous)
	assert.Equal(t, GoalStateActive, sel.State)
	assert.True(t, sel.Changed)
}

func TestSelect_KeepsActiveGoal(t *testing.T) {
	selected := &Goal{Name: "1 Week", Hours: 168}
	sel := Select(30, selected)

	assert.Equal(t, *selected, sel.Goal)
	assert.False(t, sel.Changed)
	assert.InDelta(t, 17.86, sel.ProgressPercent, 0.01)
}

func TestSelect_AdvancesWhenReached(t *testing.T) {
	selected := &Goal{Name: "24 Hours", Hours: 24}

	sel := Select(24, selected)
	assert.Equal(t, GoalStateCompleted, sel.Previous)
	assert.Equal(t, "3 Days", sel.Goal.Name)
	assert.True(t, sel.Changed)

	sel = Select(200, selected)
	assert.Equal(t, "10 Days", sel.Goal.Name)
}

func TestSelect_PinsPastTop(t *testing.T) {
	sel := Select(50000, nil)

	assert.Equal(t, "5 Years", sel.Goal.Name)
	assert.Equal(t, 100.0, sel.ProgressPercent)
	assert.Equal(t, GoalStatePinned, sel.State)
	assert.True(t, sel.Changed)

	top := TopGoal()
	sel = Select(50000, &top)
	assert.Equal(t, GoalStatePinned, sel.Previous)
	assert.False(t, sel.Changed, "pinned selection is terminal")
	assert.Equal(t, 100.0, sel.ProgressPercent)
}

func TestSelect_ExactlyAtTopPins(t *testing.T) {
	sel := Select(43800, &Goal{Name: "1 Year", Hours: 8760})
	assert.Equal(t, "5 Years", sel.Goal.Name)
	assert.Equal(t, GoalStatePinned, sel.State)
	assert.Equal(t, GoalStateCompleted, sel.Previous)
}

func TestSelect_ZeroElapsed(t *testing.T) {
	sel := Select(0, nil)
	assert.Equal(t, "24 Hours", sel.Goal.Name)
	assert.Equal(t, 0.0, sel.ProgressPercent)
}

func TestProgress_Clamped(t *testing.T) {
	assert.Equal(t, 0.0, Progress(-5, 24))
	assert.Equal(t, 100.0, Progress(48, 24))
	assert.Equal(t, 50.0, Progress(12, 24))
	assert.Equal(t, 100.0, Progress(1, 0))
}

func TestValidateOverride(t *testing.T) {
	g, err := ValidateOverride(30, "1 Week", 168)
	require.NoError(t, err)
	assert.Equal(t, Goal{Name: "1 Week", Hours: 168}, g)

	g, err = ValidateOverride(30, "1 Month", 0)
	require.NoError(t, err)
	assert.Equal(t, 720.0, g.Hours)

	_, err = ValidateOverride(30, "24 Hours", 24)
	assert.ErrorIs(t, err, ErrGoalCompleted)

	_, err = ValidateOverride(30, "Forever", 99999)
	assert.ErrorIs(t, err, ErrUnknownGoal)

	_, err = ValidateOverride(30, "1 Week", 100)
	assert.ErrorIs(t, err, ErrUnknownGoal)
}

func TestOptions_FlagsCompleted(t *testing.T) {
	opts := Options(100, Goal{Name: "1 Week", Hours: 168})
	require.Len(t, opts, 10)

	assert.True(t, opts[0].Completed)
	assert.True(t, opts[1].Completed)
	assert.False(t, opts[2].Completed)
	assert.True(t, opts[2].Selected)
	assert.False(t, opts[3].Selected)
}
