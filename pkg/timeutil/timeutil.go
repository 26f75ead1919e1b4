// Package timeutil provides calendar-day helpers bound to a configurable
// time zone. Sweeps and scoring compare whole dates, never elapsed hours.
// No external dependencies - uses only standard library.
package timeutil

import "time"

// DateLayout is the ISO date layout used for internship start dates.
const DateLayout = "2006-01-02"

// Clock returns the current time. Components take a Clock so tests can pin "now".
type Clock func() time.Time

// SystemClock is the wall clock.
func SystemClock() time.Time {
	return time.Now()
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// LoadLocation resolves an IANA zone name, falling back to UTC.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// StartOfDay returns 00:00:00 of t's date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of calendar dates from from to to in loc.
// Negative when to is on an earlier date. DST shifts do not affect the result.
func DaysBetween(from, to time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	f := from.In(loc)
	t := to.In(loc)
	// Anchor both dates at noon UTC so the hour difference is an exact multiple of 24.
	fu := time.Date(f.Year(), f.Month(), f.Day(), 12, 0, 0, 0, time.UTC)
	tu := time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
	return int(tu.Sub(fu).Hours() / 24)
}

// DaysSince returns the number of calendar dates between t and now in loc.
func DaysSince(t, now time.Time, loc *time.Location) int {
	return DaysBetween(t, now, loc)
}

// FormatDate formats t as YYYY-MM-DD in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}
