package recurrence

import (
	"fmt"
	"time"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/planerr"
)

// SameWeekdayPolicy decides what a weekly rule does when the only weekday it
// lists is the weekday of the base date.
type SameWeekdayPolicy int

const (
	// SameWeekdayStrict yields no occurrence.
	SameWeekdayStrict SameWeekdayPolicy = iota
	// SameWeekdayNextWeek yields the same weekday one week later.
	SameWeekdayNextWeek
)

// ParseSameWeekdayPolicy maps "strict" and "next-week" to a policy.
func ParseSameWeekdayPolicy(s string) (SameWeekdayPolicy, error) {
	switch s {
	case "", "strict":
		return SameWeekdayStrict, nil
	case "next-week":
		return SameWeekdayNextWeek, nil
	default:
		return 0, planerr.Newf(planerr.InvalidInput, "unknown weekly same-day policy %q", s)
	}
}

func (p SameWeekdayPolicy) String() string {
	if p == SameWeekdayNextWeek {
		return "next-week"
	}
	return "strict"
}

// Resolver computes next occurrences. The zero value uses SameWeekdayStrict.
type Resolver struct {
	SameWeekday SameWeekdayPolicy
}

// Resolve is Resolver{}.Next.
func Resolve(r Rule, base time.Time) (time.Time, bool) {
	return Resolver{}.Next(r, base)
}

// Next returns the due date following base under r. ok is false when the
// rule yields no occurrence, which is not an error.
func (res Resolver) Next(r Rule, base time.Time) (next time.Time, ok bool) {
	switch r := r.(type) {
	case nil:
		return time.Time{}, false
	case Weekly:
		return res.nextWeekly(r, base)
	case Monthly:
		return nextMonthly(r, base)
	default:
		panic(fmt.Sprintf("recurrence: unhandled rule %T", r))
	}
}

func (res Resolver) nextWeekly(r Weekly, base time.Time) (time.Time, bool) {
	if len(r.Weekdays) == 0 {
		return time.Time{}, false
	}
	d := calendar.Weekday(base)

	after, before := -1, -1
	for _, wd := range r.Weekdays {
		switch {
		case wd > d && (after < 0 || int(wd) < after):
			after = int(wd)
		case wd < d && (before < 0 || int(wd) < before):
			before = int(wd)
		}
	}

	target := after
	if target < 0 {
		target = before
	}
	if target < 0 {
		// Only d itself is listed.
		if res.SameWeekday != SameWeekdayNextWeek {
			return time.Time{}, false
		}
		target = int(d)
	}
	return calendar.NextWeekday(base, time.Weekday(target)), true
}

func nextMonthly(r Monthly, base time.Time) (time.Time, bool) {
	if len(r.Days) == 0 {
		return time.Time{}, false
	}
	nextMonth := calendar.AddMonths(base, 1)
	due := calendar.SetDay(nextMonth, r.Days[0])
	if !calendar.SameMonth(due, nextMonth) {
		due = calendar.LastDayOfMonth(nextMonth)
	}
	return due, true
}
