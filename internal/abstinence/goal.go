package abstinence

import (
	"errors"
	"math"
)

var (
	ErrUnknownGoal   = errors.New("goal is not on the milestone ladder")
	ErrGoalCompleted = errors.New("goal has already been reached")
)

type Goal struct {
	Name  string  `json:"name"`
	Hours float64 `json:"hours"`
}

type GoalState string

const (
	GoalStateNone      GoalState = "no_goal"
	GoalStateActive    GoalState = "active"
	GoalStateCompleted GoalState = "completed"
	GoalStatePinned    GoalState = "pinned"
)

// ladder is ordered by ascending hours.
var ladder = []Goal{
	{Name: "24 Hours", Hours: 24},
	{Name: "3 Days", Hours: 72},
	{Name: "1 Week", Hours: 168},
	{Name: "10 Days", Hours: 240},
	{Name: "2 Weeks", Hours: 336},
	{Name: "1 Month", Hours: 720},
	{Name: "3 Months", Hours: 2160},
	{Name: "6 Months", Hours: 4320},
	{Name: "1 Year", Hours: 8760},
	{Name: "5 Years", Hours: 43800},
}

// Ladder returns a copy of the milestone ladder.
func Ladder() []Goal {
	out := make([]Goal, len(ladder))
	copy(out, ladder)
	return out
}

// TopGoal is the highest milestone.
func TopGoal() Goal {
	return ladder[len(ladder)-1]
}

// LookupGoal finds a ladder entry by name.
func LookupGoal(name string) (Goal, bool) {
	for _, g := range ladder {
		if g.Name == name {
			return g, true
		}
	}
	return Goal{}, false
}

// NextGoal returns the first milestone strictly above hours.
func NextGoal(hours float64) (Goal, bool) {
	for _, g := range ladder {
		if g.Hours > hours {
			return g, true
		}
	}
	return Goal{}, false
}

// StateOf reports where a stored selection stands for the elapsed hours,
// before any auto-advance is applied.
func StateOf(hours float64, selected *Goal) GoalState {
	switch {
	case selected == nil || selected.Hours <= 0:
		return GoalStateNone
	case hours < selected.Hours:
		return GoalStateActive
	case selected.Hours >= TopGoal().Hours:
		return GoalStatePinned
	default:
		return GoalStateCompleted
	}
}

// Selection is the outcome of evaluating a stored goal against elapsed time.
type Selection struct {
	Goal            Goal
	State           GoalState
	Previous        GoalState
	ProgressPercent float64
	// Changed is set when Goal differs from the stored selection and should be
	// persisted back to the activity.
	Changed bool
}

// Select keeps the selected goal while it is still ahead of hours and
// otherwise advances to the next milestone. Past the top of the ladder the
// selection pins to the last entry at 100%.
func Select(hours float64, selected *Goal) Selection {
	sel := Selection{Previous: StateOf(hours, selected)}

	if sel.Previous == GoalStateActive {
		sel.Goal = *selected
		sel.State = GoalStateActive
		sel.ProgressPercent = Progress(hours, selected.Hours)
		return sel
	}

	next, ok := NextGoal(hours)
	if ok {
		sel.Goal = next
		sel.State = GoalStateActive
		sel.ProgressPercent = Progress(hours, next.Hours)
	} else {
		sel.Goal = TopGoal()
		sel.State = GoalStatePinned
		sel.ProgressPercent = 100
	}
	sel.Changed = selected == nil || *selected != sel.Goal
	return sel
}

// Progress is hours as a percentage of goalHours, clamped to [0, 100] and
// rounded to two decimals.
func Progress(hours, goalHours float64) float64 {
	if goalHours <= 0 {
		return 100
	}
	p := hours / goalHours * 100
	p = math.Max(0, math.Min(100, p))
	return math.Round(p*100) / 100
}

// ValidateOverride checks a manual goal choice. The name must be a ladder
// entry, goalHours (when non-zero) must match it, and it must not already
// be reached.
func ValidateOverride(hours float64, name string, goalHours float64) (Goal, error) {
	g, ok := LookupGoal(name)
	if !ok || (goalHours != 0 && goalHours != g.Hours) {
		return Goal{}, ErrUnknownGoal
	}
	if hours >= g.Hours {
		return Goal{}, ErrGoalCompleted
	}
	return g, nil
}

type GoalOption struct {
	Goal
	Completed bool `json:"completed"`
	Selected  bool `json:"selected"`
}

// Options lists the ladder with completed entries flagged; those cannot be
// picked manually.
func Options(hours float64, current Goal) []GoalOption {
	opts := make([]GoalOption, 0, len(ladder))
	for _, g := range ladder {
		opts = append(opts, GoalOption{
			Goal:      g,
			Completed: hours >= g.Hours,
			Selected:  g == current,
		})
	}
	return opts
}
