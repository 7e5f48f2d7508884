package model

import (
	"time"

	"daily-tasks/internal/recurrence"
)

// Task represents a single item in the planner.
type Task struct {
	ID             string `gorm:"primaryKey;size:36"`
	Title          string
	Memo           string
	DueDate        *time.Time `gorm:"index"`
	IsToday        bool       `gorm:"column:is_scheduled_today;index;default:false"`
	Completed      bool       `gorm:"default:false"`
	RepeatType     string     // weekly, monthly or empty
	RepeatWeekdays string     // CSV of weekday names
	RepeatDays     string     // CSV of days of month
	RepeatSpawned  bool       `gorm:"default:false"`
	Steps          []Step     `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Rule decodes the repeat columns. It returns nil when the task does not
// repeat and planerr.InvalidRule when the stored tag is unknown.
func (t *Task) Rule() (recurrence.Rule, error) {
	switch recurrence.Kind(t.RepeatType) {
	case recurrence.KindWeekly:
		return recurrence.ParseRule(t.RepeatType, t.RepeatWeekdays)
	default:
		return recurrence.ParseRule(t.RepeatType, t.RepeatDays)
	}
}

// SetRule encodes r into the repeat columns; nil clears them.
func (t *Task) SetRule(r recurrence.Rule) {
	kind, values := recurrence.Format(r)
	t.RepeatType, t.RepeatWeekdays, t.RepeatDays = kind, "", ""
	switch recurrence.Kind(kind) {
	case recurrence.KindWeekly:
		t.RepeatWeekdays = values
	case recurrence.KindMonthly:
		t.RepeatDays = values
	}
}

// Repeats reports whether the task carries a repeat rule.
func (t *Task) Repeats() bool {
	return t.RepeatType != ""
}

// Step is a sub-item of a task.
type Step struct {
	ID        string `gorm:"primaryKey;size:36"`
	TaskID    string `gorm:"index;size:36"`
	Title     string
	Completed bool `gorm:"default:false"`
	Position  int
	CreatedAt time.Time
}
