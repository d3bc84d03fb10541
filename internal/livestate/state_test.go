package livestate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"habitTrackerAPI/internal/abstinence"
)

var anchor = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestWatchReportsMissing(t *testing.T) {
	s := New()

	assert.Equal(t, []string{"a", "b"}, s.Watch([]string{"a", "b", "a"}))
	require.True(t, s.Apply(Entry{ActivityID: "a", Anchor: anchor}))

	assert.Equal(t, []string{"c"}, s.Watch([]string{"a", "c"}))
	assert.False(t, s.IsWatching("b"))
}

func TestApplyDropsStaleResults(t *testing.T) {
	s := New()
	s.Watch([]string{"a"})
	s.Watch([]string{"b"})

	assert.False(t, s.Apply(Entry{ActivityID: "a", Anchor: anchor}))

	displays, _ := s.Tick(anchor.Add(time.Hour))
	assert.Empty(t, displays)
}

func TestTickRendersInWatchOrder(t *testing.T) {
	s := New()
	s.Watch([]string{"b", "a"})
	s.Apply(Entry{ActivityID: "a", Anchor: anchor, Label: "Sober"})
	s.Apply(Entry{ActivityID: "b", Anchor: anchor.Add(time.Hour)})

	displays, _ := s.Tick(anchor.Add(36 * time.Hour))
	require.Len(t, displays, 2)
	assert.Equal(t, "b", displays[0].ActivityID)
	assert.Equal(t, "1d 11h 0m 0s", displays[0].TimeString)
	assert.Equal(t, "a", displays[1].ActivityID)
	assert.Equal(t, "Sober", displays[1].Label)
}

func TestTickReportsAdvanceOnce(t *testing.T) {
	s := New()
	s.Watch([]string{"a"})
	day := abstinence.Goal{Name: "24 Hours", Hours: 24}
	s.Apply(Entry{ActivityID: "a", Anchor: anchor, Selected: &day})

	displays, advances := s.Tick(anchor.Add(30 * time.Hour))
	require.Len(t, advances, 1)
	assert.Equal(t, "3 Days", advances[0].Selection.Goal.Name)
	assert.Equal(t, abstinence.GoalStateCompleted, advances[0].Selection.Previous)
	assert.Equal(t, &day, advances[0].Previous)
	assert.Equal(t, "3 Days", displays[0].CurrentGoal)

	_, advances = s.Tick(anchor.Add(30*time.Hour + time.Second))
	assert.Empty(t, advances)
}

func TestForget(t *testing.T) {
	s := New()
	s.Watch([]string{"a", "b"})
	s.Apply(Entry{ActivityID: "a", Anchor: anchor})
	s.Apply(Entry{ActivityID: "b", Anchor: anchor})

	s.Forget("a")
	displays, _ := s.Tick(anchor.Add(time.Minute))
	require.Len(t, displays, 1)
	assert.Equal(t, "b", displays[0].ActivityID)
}
