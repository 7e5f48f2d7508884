package repository

import (
	"context"

	"gorm.io/gorm"

	"daily-tasks/internal/model"
	"daily-tasks/internal/planerr"
)

// StepRepository handles CRUD for task steps.
type StepRepository struct {
	db *gorm.DB
}

func NewStepRepository(db *gorm.DB) *StepRepository {
	return &StepRepository{db: db}
}

// Create appends step to the task's step list.
func (r *StepRepository) Create(ctx context.Context, taskID string, step *model.Step) error {
	db := r.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.Task{}).Where("id = ?", taskID).Count(&count).Error; err != nil {
		return storeErr(err, "find task")
	}
	if count == 0 {
		return planerr.Newf(planerr.NotFound, "task %s not found", taskID)
	}

	var last struct{ Max *int }
	if err := db.Model(&model.Step{}).Select("MAX(position) AS max").Where("task_id = ?", taskID).Scan(&last).Error; err != nil {
		return storeErr(err, "next step position")
	}
	step.TaskID = taskID
	step.Position = 0
	if last.Max != nil {
		step.Position = *last.Max + 1
	}
	if err := db.Create(step).Error; err != nil {
		return storeErr(err, "create step")
	}
	return nil
}

func (r *StepRepository) SetCompleted(ctx context.Context, stepID string, completed bool) error {
	res := r.db.WithContext(ctx).Model(&model.Step{}).Where("id = ?", stepID).Update("completed", completed)
	if res.Error != nil {
		return storeErr(res.Error, "update step")
	}
	if res.RowsAffected == 0 {
		return planerr.Newf(planerr.NotFound, "step %s not found", stepID)
	}
	return nil
}

func (r *StepRepository) Delete(ctx context.Context, stepID string) error {
	res := r.db.WithContext(ctx).Where("id = ?", stepID).Delete(&model.Step{})
	if res.Error != nil {
		return storeErr(res.Error, "delete step")
	}
	if res.RowsAffected == 0 {
		return planerr.Newf(planerr.NotFound, "step %s not found", stepID)
	}
	return nil
}
