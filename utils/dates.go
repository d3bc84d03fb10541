package utils

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"cloud.google.com/go/civil"
)

// DateFormat is the only accepted wire format for calendar dates.
const DateFormat = "2006-01-02"

// LoadLocation loads an IANA timezone. Empty means UTC.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return loc, nil
}

// ParseDate parses a strict YYYY-MM-DD date.
func ParseDate(s string) (civil.Date, error) {
	if len(s) != len(DateFormat) {
		return civil.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// DateOf returns the calendar date of t as seen in loc.
func DateOf(t time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(t.In(loc))
}

// Today returns the current calendar date in loc.
func Today(now time.Time, loc *time.Location) civil.Date {
	return DateOf(now, loc)
}

// DayBounds returns the half-open instant range [start, end) covered by d in loc.
// Days shortened or stretched by DST transitions are handled by the zone rules.
func DayBounds(d civil.Date, loc *time.Location) (time.Time, time.Time) {
	return d.In(loc), d.AddDays(1).In(loc)
}

// RangeBounds returns [first 00:00, last+1 00:00) in loc.
func RangeBounds(first, last civil.Date, loc *time.Location) (time.Time, time.Time) {
	return first.In(loc), last.AddDays(1).In(loc)
}

// LocalNoon is the neutral timestamp used for events created by day toggles.
func LocalNoon(d civil.Date, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, loc)
}
