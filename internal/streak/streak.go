package streak

import (
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"habitTrackerAPI/internal/stats"
	"habitTrackerAPI/utils"
)

// Distinct returns the unique dates in ascending order.
func Distinct(dates []civil.Date) []civil.Date {
	seen := make(map[civil.Date]struct{}, len(dates))
	out := make([]civil.Date, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Current counts consecutive days ending today, or yesterday when today has
// no event yet. A gap before yesterday means the streak is broken.
func Current(dates []civil.Date, today civil.Date) int {
	present := make(map[civil.Date]struct{}, len(dates))
	for _, d := range dates {
		present[d] = struct{}{}
	}

	start := today
	if _, ok := present[today]; !ok {
		start = today.AddDays(-1)
		if _, ok := present[start]; !ok {
			return 0
		}
	}

	count := 0
	for d := start; ; d = d.AddDays(-1) {
		if _, ok := present[d]; !ok {
			break
		}
		count++
	}
	return count
}

// Longest returns the longest run of consecutive days in dates.
func Longest(dates []civil.Date) int {
	sorted := Distinct(dates)
	if len(sorted) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(sorted); i++ {
		if sorted[i].DaysSince(sorted[i-1]) == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// Calculate returns both streaks for the given event dates.
func Calculate(dates []civil.Date, today civil.Date) (current, longest int) {
	return Current(dates, today), Longest(dates)
}

// FromTimes buckets event timestamps into calendar days in loc and derives
// the full statistics block.
func FromTimes(times []time.Time, loc *time.Location, today civil.Date) stats.Statistics {
	s := stats.Statistics{TotalEvents: len(times)}
	if len(times) == 0 {
		return s
	}

	dates := make([]civil.Date, 0, len(times))
	first, last := times[0], times[0]
	for _, t := range times {
		dates = append(dates, utils.DateOf(t, loc))
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}

	s.CurrentStreak, s.LongestStreak = Calculate(dates, today)
	first, last = first.UTC(), last.UTC()
	s.FirstEvent = &first
	s.LastEvent = &last
	return s
}
