package model

import (
	"time"

	"daily-tasks/internal/recurrence"
)

// TaskPatch is a partial task update; nil fields are left unchanged.
type TaskPatch struct {
	Title         *string
	Memo          *string
	DueDate       **time.Time
	IsToday       *bool
	Completed     *bool
	RepeatSpawned *bool
	Rule          *recurrence.Rule
}

// Columns returns the column map for gorm Updates, so false and empty values
// are written too.
func (p TaskPatch) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Memo != nil {
		cols["memo"] = *p.Memo
	}
	if p.DueDate != nil {
		cols["due_date"] = *p.DueDate
	}
	if p.IsToday != nil {
		cols["is_scheduled_today"] = *p.IsToday
	}
	if p.Completed != nil {
		cols["completed"] = *p.Completed
	}
	if p.RepeatSpawned != nil {
		cols["repeat_spawned"] = *p.RepeatSpawned
	}
	if p.Rule != nil {
		var t Task
		t.SetRule(*p.Rule)
		cols["repeat_type"] = t.RepeatType
		cols["repeat_weekdays"] = t.RepeatWeekdays
		cols["repeat_days"] = t.RepeatDays
	}
	return cols
}

// Apply copies the set fields onto t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Memo != nil {
		t.Memo = *p.Memo
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.IsToday != nil {
		t.IsToday = *p.IsToday
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.RepeatSpawned != nil {
		t.RepeatSpawned = *p.RepeatSpawned
	}
	if p.Rule != nil {
		t.SetRule(*p.Rule)
	}
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}
