package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
)

// MarkerRepository stores the last-run day of named jobs.
type MarkerRepository struct {
	db *gorm.DB
}

func NewMarkerRepository(db *gorm.DB) *MarkerRepository {
	return &MarkerRepository{db: db}
}

// Get returns the recorded day; ok is false when the job never ran.
func (r *MarkerRepository) Get(ctx context.Context, name string) (calendar.Date, bool, error) {
	var marker model.RefreshMarker
	err := r.db.WithContext(ctx).Where("id = ?", name).First(&marker).Error
	switch {
	case err == nil:
		return marker.Value, !marker.Value.IsZero(), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return calendar.Date{}, false, nil
	default:
		return calendar.Date{}, false, storeErr(err, "read refresh marker")
	}
}

// Upsert records day for name.
func (r *MarkerRepository) Upsert(ctx context.Context, name string, day calendar.Date) error {
	marker := model.RefreshMarker{ID: name, Value: day}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&marker).Error
	if err != nil {
		return storeErr(err, "write refresh marker")
	}
	return nil
}
