package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
	"daily-tasks/internal/recurrence"
	"daily-tasks/internal/repository"
)

// DigestService builds human-readable task summaries for the chat UI.
type DigestService struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

func NewDigestService(store Store, loc *time.Location) *DigestService {
	if loc == nil {
		loc = time.Local
	}
	return &DigestService{store: store, loc: loc, now: time.Now}
}

// Today lists open tasks flagged for today or due today, plus overdue ones.
func (s *DigestService) Today(ctx context.Context) (string, error) {
	tasks, err := s.store.ListTasks(ctx, repository.FilterAll)
	if err != nil {
		return "", err
	}
	now := s.now().In(s.loc)
	today := calendar.DateOf(now)

	var current, overdue []model.Task
	for _, task := range tasks {
		if task.Completed {
			continue
		}
		switch {
		case task.IsToday || (task.DueDate != nil && today.Contains(task.DueDate.In(s.loc))):
			current = append(current, task)
		case task.DueDate != nil && task.DueDate.In(s.loc).Before(calendar.StartOfDay(now)):
			overdue = append(overdue, task)
		}
	}
	sortByDue(current)
	sortByDue(overdue)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Today</b> · %s\n\n", now.Format("Mon, 02 Jan 2006")))
	if len(current) == 0 {
		builder.WriteString("— nothing planned for today\n")
	}
	for _, task := range current {
		builder.WriteString(FormatTask(task, now))
	}
	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Overdue</b>\n")
		for _, task := range overdue {
			builder.WriteString(FormatTask(task, now))
		}
	}
	return strings.TrimSpace(builder.String()), nil
}

// List formats tasks as a plain list with ids.
func (s *DigestService) List(tasks []model.Task, heading string) string {
	now := s.now().In(s.loc)
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("<b>%s</b>\n", html.EscapeString(heading)))
	if len(tasks) == 0 {
		builder.WriteString("— empty\n")
	}
	for _, task := range tasks {
		builder.WriteString(FormatTask(task, now))
	}
	return strings.TrimSpace(builder.String())
}

func sortByDue(tasks []model.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		switch {
		case tasks[i].DueDate == nil && tasks[j].DueDate == nil:
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		case tasks[i].DueDate == nil:
			return false
		case tasks[j].DueDate == nil:
			return true
		default:
			return tasks[i].DueDate.Before(*tasks[j].DueDate)
		}
	})
}

// FormatTask renders one task as an HTML line block.
func FormatTask(task model.Task, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	switch {
	case task.Completed:
		icon = "✅"
	case task.DueDate != nil && task.DueDate.In(now.Location()).Before(calendar.StartOfDay(now)):
		icon = "⚠️"
	case task.IsToday:
		icon = "⭐"
	}

	title := html.EscapeString(strings.TrimSpace(task.Title))
	sb.WriteString(fmt.Sprintf("%s %s <code>%s</code>", icon, title, ShortID(task.ID)))

	if task.DueDate != nil {
		d := task.DueDate.In(now.Location())
		sb.WriteString(fmt.Sprintf("\n   ⏰ %s", d.Format("2006-01-02")))
	}
	if rule, err := task.Rule(); err == nil && rule != nil {
		sb.WriteString(fmt.Sprintf("\n   ♻️ %s", recurrence.Describe(rule)))
	}
	if len(task.Steps) > 0 {
		done := 0
		for _, step := range task.Steps {
			if step.Completed {
				done++
			}
		}
		sb.WriteString(fmt.Sprintf("\n   ☑️ %d/%d steps", done, len(task.Steps)))
	}
	if task.Memo != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Memo))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

// ShortID is the id prefix shown to users.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
