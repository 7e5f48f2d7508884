package recurrence

import (
	"errors"
	"slices"
	"testing"
	"time"

	"daily-tasks/internal/planerr"
)

func TestParseRule(t *testing.T) {
	r, err := ParseRule("weekly", "monday, Fri,monday")
	if err != nil {
		t.Fatalf("ParseRule weekly: %v", err)
	}
	w, ok := r.(Weekly)
	if !ok {
		t.Fatalf("rule is %T, want Weekly", r)
	}
	if !slices.Equal(w.Weekdays, []time.Weekday{time.Monday, time.Friday}) {
		t.Errorf("weekdays = %v", w.Weekdays)
	}

	r, err = ParseRule("monthly", "31,1")
	if err != nil {
		t.Fatalf("ParseRule monthly: %v", err)
	}
	if m := r.(Monthly); !slices.Equal(m.Days, []int{31, 1}) {
		t.Errorf("days = %v", m.Days)
	}

	r, err = ParseRule("", "")
	if err != nil || r != nil {
		t.Errorf("empty kind = %v, %v; want nil, nil", r, err)
	}

	r, err = ParseRule("weekly", "")
	if err != nil {
		t.Fatalf("inert weekly: %v", err)
	}
	if len(r.(Weekly).Weekdays) != 0 {
		t.Error("expected inert weekly rule")
	}
}

func TestParseRuleRejects(t *testing.T) {
	cases := []struct{ kind, values string }{
		{"yearly", "1"},
		{"weekly", "funday"},
		{"monthly", "0"},
		{"monthly", "32"},
		{"monthly", "x"},
	}
	for _, c := range cases {
		_, err := ParseRule(c.kind, c.values)
		if !errors.Is(err, planerr.ErrInvalidRule) {
			t.Errorf("ParseRule(%q, %q) err = %v, want InvalidRule", c.kind, c.values, err)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	rules := []Rule{
		Weekly{Weekdays: []time.Weekday{time.Sunday, time.Wednesday}},
		Monthly{Days: []int{15}},
		Weekly{},
	}
	for _, r := range rules {
		kind, values := Format(r)
		back, err := ParseRule(kind, values)
		if err != nil {
			t.Fatalf("ParseRule(%q, %q): %v", kind, values, err)
		}
		if Describe(back) != Describe(r) {
			t.Errorf("round trip %v -> %v", r, back)
		}
	}
	if kind, values := Format(nil); kind != "" || values != "" {
		t.Errorf("Format(nil) = %q, %q", kind, values)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		rule Rule
		want string
	}{
		{EveryDay(), "every day"},
		{Weekdays(), "weekdays"},
		{Weekly{Weekdays: []time.Weekday{time.Friday, time.Monday}}, "weekly on Mon, Fri"},
		{Monthly{Days: []int{10}}, "monthly on day 10"},
		{Monthly{}, "monthly (no day)"},
	}
	for _, tt := range tests {
		if got := Describe(tt.rule); got != tt.want {
			t.Errorf("Describe(%v) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}
