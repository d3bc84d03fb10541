package abstinence

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Rows written before offsets were stored carry no zone and are read as UTC.
var legacyLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseStoredTimestamp reads a persisted timestamp. RFC 3339 values keep
// their offset; values without one are interpreted as UTC. New writes must
// always carry an offset.
func ParseStoredTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05Z07:00", s); err == nil {
		return t, nil
	}
	for _, layout := range legacyLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// Elapsed is now - anchor floored to whole seconds, never negative.
func Elapsed(anchor, now time.Time) time.Duration {
	d := now.Sub(anchor).Truncate(time.Second)
	if d < 0 {
		return 0
	}
	return d
}

// FormatElapsed renders d as "{d}d {h}h {m}m {s}s", dropping leading units
// that are zero.
func FormatElapsed(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	days := total / 86400
	hours := total % 86400 / 3600
	minutes := total % 3600 / 60
	seconds := total % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}

// Hours converts an elapsed duration to fractional hours.
func Hours(d time.Duration) float64 {
	return float64(d/time.Second) / 3600
}

type TimeDisplay struct {
	ActivityID      string    `json:"activity_id,omitempty"`
	TimeString      string    `json:"timeString"`
	ProgressPercent float64   `json:"progressPercent"`
	CurrentGoal     string    `json:"currentGoal"`
	GoalHours       float64   `json:"goalHours"`
	GoalState       GoalState `json:"goalState"`
	TotalHours      float64   `json:"totalHours"`
	Anchor          time.Time `json:"anchor"`
	Label           string    `json:"label,omitempty"`

	// PreviousGoalState is the selected goal's state before any advance.
	PreviousGoalState GoalState `json:"previousGoalState"`
}

// Compute derives the timer display and the goal selection for an anchor.
// It performs no I/O; callers persist Selection.Goal when Selection.Changed.
func Compute(anchor, now time.Time, selected *Goal) (TimeDisplay, Selection) {
	elapsed := Elapsed(anchor, now)
	hours := Hours(elapsed)
	sel := Select(hours, selected)

	return TimeDisplay{
		TimeString:        FormatElapsed(elapsed),
		ProgressPercent:   sel.ProgressPercent,
		CurrentGoal:       sel.Goal.Name,
		GoalHours:         sel.Goal.Hours,
		GoalState:         sel.State,
		PreviousGoalState: sel.Previous,
		TotalHours:        math.Round(hours*100) / 100,
		Anchor:            anchor.UTC(),
	}, sel
}
