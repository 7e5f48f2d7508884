package model

import (
	"time"

	"daily-tasks/internal/calendar"
)

// RefreshMarker records the day a named job last completed.
type RefreshMarker struct {
	ID        string `gorm:"primaryKey"`
	Value     calendar.Date
	UpdatedAt time.Time
}
