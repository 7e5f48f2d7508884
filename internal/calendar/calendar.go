// Package calendar holds the date arithmetic used by recurrence and the daily
// refresh job. Every function works in the location of its argument and keeps
// the time of day.
package calendar

import "time"

// Weekday returns the day of week of t, 0=Sunday..6=Saturday.
func Weekday(t time.Time) time.Weekday {
	return t.Weekday()
}

// DaysIn returns the number of days of the given month.
func DaysIn(year int, month time.Month) int {
	// Move to next month, roll back a day.
	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// AddMonths moves t by n calendar months. When the day does not exist in the
// target month it is clamped to that month's last day (Jan 31 + 1 = Feb 28).
func AddMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	first := time.Date(year, month+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return SetDay(first, day)
}

// SameMonth reports whether a and b fall in the same year and month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// LastDayOfMonth returns the last day of t's month.
func LastDayOfMonth(t time.Time) time.Time {
	return SetDay(t, DaysIn(t.Year(), t.Month()))
}

// SetDay replaces the day of month. A day past the end of the month rolls
// into the following month; callers detect that with SameMonth and clamp.
func SetDay(t time.Time, day int) time.Time {
	return time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// NextWeekday returns the first date strictly after t that falls on wd,
// between one and seven days later.
func NextWeekday(t time.Time, wd time.Weekday) time.Time {
	delta := (int(wd) - int(t.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return t.AddDate(0, 0, delta)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
