package weekly_stats

import (
	"time"

	"cloud.google.com/go/civil"

	"habitTrackerAPI/utils"
)

// WindowDays is the width of the week-at-a-glance grid.
const WindowDays = 7

type WeeklyDay struct {
	Date      civil.Date `json:"date"`
	Completed bool       `json:"completed"`
	Count     int        `json:"count"`
}

type WeeklyLog struct {
	StartDate civil.Date  `json:"start_date"`
	EndDate   civil.Date  `json:"end_date"`
	Days      []WeeklyDay `json:"days"`
}

// Build returns the seven days ending at end, oldest first.
func Build(end civil.Date, counts map[civil.Date]int) WeeklyLog {
	start := end.AddDays(-(WindowDays - 1))
	return WeeklyLog{
		StartDate: start,
		EndDate:   end,
		Days:      BuildRange(start, end, counts),
	}
}

// BuildRange returns one entry per date in [start, end]. Dates missing from
// counts are reported as incomplete with a zero count.
func BuildRange(start, end civil.Date, counts map[civil.Date]int) []WeeklyDay {
	if end.Before(start) {
		return []WeeklyDay{}
	}

	days := make([]WeeklyDay, 0, end.DaysSince(start)+1)
	for d := start; !d.After(end); d = d.AddDays(1) {
		n := counts[d]
		days = append(days, WeeklyDay{
			Date:      d,
			Completed: n > 0,
			Count:     n,
		})
	}
	return days
}

// CountByDate buckets timestamps into calendar days in loc.
func CountByDate(times []time.Time, loc *time.Location) map[civil.Date]int {
	counts := make(map[civil.Date]int, len(times))
	for _, t := range times {
		counts[utils.DateOf(t, loc)]++
	}
	return counts
}
