package stats

import "time"

// Statistics is the derived streak state of one activity. It is recomputed
// from the event log on every read and never stored.
type Statistics struct {
	CurrentStreak int        `json:"currentStreak"`
	LongestStreak int        `json:"longestStreak"`
	TotalEvents   int        `json:"totalEvents"`
	FirstEvent    *time.Time `json:"firstEvent,omitempty"`
	LastEvent     *time.Time `json:"lastEvent,omitempty"`
}
