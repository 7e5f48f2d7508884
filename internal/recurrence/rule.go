// Package recurrence computes the next occurrence of a repeating task.
//
// Two rule kinds exist, Weekly and Monthly. Rule is sealed: the only
// implementations live in this package and Resolver.Next switches over them.
package recurrence

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"daily-tasks/internal/planerr"
)

// Kind is the persisted tag of a rule.
type Kind string

const (
	KindWeekly  Kind = "weekly"
	KindMonthly Kind = "monthly"
)

// Rule is a repeat rule. A rule with no weekdays or no days is inert: it is
// valid but never yields an occurrence.
type Rule interface {
	Kind() Kind
	rule()
}

// Weekly repeats on a set of weekdays.
type Weekly struct {
	Weekdays []time.Weekday
}

// Monthly repeats on a day of month. Only Days[0] drives resolution; the rest
// are stored as given.
type Monthly struct {
	Days []int
}

func (Weekly) Kind() Kind  { return KindWeekly }
func (Monthly) Kind() Kind { return KindMonthly }
func (Weekly) rule()       {}
func (Monthly) rule()      {}

// EveryDay is a weekly rule on all seven days.
func EveryDay() Weekly {
	return Weekly{Weekdays: []time.Weekday{
		time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
	}}
}

// Weekdays is a weekly rule Monday through Friday.
func Weekdays() Weekly {
	return Weekly{Weekdays: []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
	}}
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// ParseWeekday accepts full or three-letter English names, any case.
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, planerr.Newf(planerr.InvalidRule, "unknown weekday %q", s)
	}
	return wd, nil
}

// ParseRule builds a rule from its persisted form: a kind tag and a CSV value
// list (weekday names for weekly, integers 1-31 for monthly). An empty kind
// means no rule and returns nil. Unknown kinds and malformed values are
// rejected with planerr.InvalidRule.
func ParseRule(kind, values string) (Rule, error) {
	items := splitCSV(values)
	switch Kind(strings.ToLower(strings.TrimSpace(kind))) {
	case "":
		return nil, nil
	case KindWeekly:
		w := Weekly{}
		for _, item := range items {
			wd, err := ParseWeekday(item)
			if err != nil {
				return nil, err
			}
			if !slices.Contains(w.Weekdays, wd) {
				w.Weekdays = append(w.Weekdays, wd)
			}
		}
		return w, nil
	case KindMonthly:
		m := Monthly{}
		for _, item := range items {
			n, err := strconv.Atoi(item)
			if err != nil || n < 1 || n > 31 {
				return nil, planerr.Newf(planerr.InvalidRule, "invalid day of month %q", item)
			}
			m.Days = append(m.Days, n)
		}
		return m, nil
	default:
		return nil, planerr.Newf(planerr.InvalidRule, "unknown repeat type %q", kind)
	}
}

// Validate rejects rules that ParseRule would not produce, such as weekdays
// outside Sunday..Saturday or days outside 1-31.
func Validate(r Rule) error {
	switch r := r.(type) {
	case nil:
		return nil
	case Weekly:
		for _, wd := range r.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return planerr.Newf(planerr.InvalidRule, "invalid weekday %d", wd)
			}
		}
		return nil
	case Monthly:
		for _, d := range r.Days {
			if d < 1 || d > 31 {
				return planerr.Newf(planerr.InvalidRule, "invalid day of month %d", d)
			}
		}
		return nil
	default:
		return planerr.Newf(planerr.InvalidRule, "unknown repeat rule %T", r)
	}
}

// Format is the inverse of ParseRule.
func Format(r Rule) (kind, values string) {
	switch r := r.(type) {
	case nil:
		return "", ""
	case Weekly:
		names := make([]string, 0, len(r.Weekdays))
		for _, wd := range r.Weekdays {
			names = append(names, strings.ToLower(wd.String()))
		}
		return string(KindWeekly), strings.Join(names, ",")
	case Monthly:
		days := make([]string, 0, len(r.Days))
		for _, d := range r.Days {
			days = append(days, strconv.Itoa(d))
		}
		return string(KindMonthly), strings.Join(days, ",")
	default:
		panic(fmt.Sprintf("recurrence: unhandled rule %T", r))
	}
}

// Describe returns a short human label for r.
func Describe(r Rule) string {
	switch r := r.(type) {
	case nil:
		return ""
	case Weekly:
		set := sortedWeekdays(r.Weekdays)
		switch {
		case len(set) == 0:
			return "weekly (no days)"
		case slices.Equal(set, EveryDay().Weekdays):
			return "every day"
		case slices.Equal(set, Weekdays().Weekdays):
			return "weekdays"
		}
		names := make([]string, 0, len(set))
		for _, wd := range set {
			names = append(names, wd.String()[:3])
		}
		return "weekly on " + strings.Join(names, ", ")
	case Monthly:
		if len(r.Days) == 0 {
			return "monthly (no day)"
		}
		return fmt.Sprintf("monthly on day %d", r.Days[0])
	default:
		panic(fmt.Sprintf("recurrence: unhandled rule %T", r))
	}
}

func sortedWeekdays(in []time.Weekday) []time.Weekday {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
