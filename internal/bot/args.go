package bot

import (
	"strings"
	"time"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/planerr"
	"daily-tasks/internal/recurrence"
	"daily-tasks/internal/service"
)

// parseAddArgs reads "<title> [; due YYYY-MM-DD] [; today] [; memo text]".
func parseAddArgs(args string, loc *time.Location) (service.TaskInput, error) {
	parts := strings.Split(args, ";")
	input := service.TaskInput{Title: strings.TrimSpace(parts[0])}
	if input.Title == "" {
		return input, planerr.New(planerr.InvalidInput, "usage: /add <title> [; due YYYY-MM-DD] [; today]")
	}
	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		key, value, _ := strings.Cut(part, " ")
		switch strings.ToLower(key) {
		case "":
		case "due":
			day, err := calendar.Parse(strings.TrimSpace(value))
			if err != nil {
				return input, err
			}
			due := day.In(loc)
			input.DueDate = &due
		case "today":
			input.Today = true
		case "memo":
			input.Memo = strings.TrimSpace(value)
		default:
			return input, planerr.Newf(planerr.InvalidInput, "unknown option %q", key)
		}
	}
	return input, nil
}

type repeatCommand struct {
	id    string
	rule  recurrence.Rule
	reset bool
}

// parseRepeatArgs reads "<id> weekly mon,fri", "<id> monthly 10",
// "<id> everyday", "<id> weekdays", "<id> reset" or "<id> off".
func parseRepeatArgs(args string) (repeatCommand, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return repeatCommand{}, planerr.New(planerr.InvalidInput, "usage: /repeat <id> weekly mon,fri | monthly 10 | everyday | weekdays | reset | off")
	}
	cmd := repeatCommand{id: fields[0]}
	kind := strings.ToLower(fields[1])
	values := strings.Join(fields[2:], ",")

	switch kind {
	case "off", "none":
		return cmd, nil
	case "reset":
		cmd.reset = true
		return cmd, nil
	case "everyday", "daily":
		cmd.rule = recurrence.EveryDay()
		return cmd, nil
	case "weekdays":
		cmd.rule = recurrence.Weekdays()
		return cmd, nil
	}

	if values == "" {
		return cmd, planerr.Newf(planerr.InvalidInput, "%s needs values, e.g. /repeat %s weekly mon,fri", kind, cmd.id)
	}
	rule, err := recurrence.ParseRule(kind, values)
	if err != nil {
		return cmd, err
	}
	cmd.rule = rule
	return cmd, nil
}
