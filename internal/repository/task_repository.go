package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"daily-tasks/internal/model"
	"daily-tasks/internal/planerr"
)

// TaskFilter selects which tasks ListTasks returns.
type TaskFilter int

const (
	// FilterAll returns every task.
	FilterAll TaskFilter = iota
	// FilterToday returns tasks flagged for today.
	FilterToday
	// FilterPlanned returns tasks with a due date.
	FilterPlanned
)

// ParseFilter maps "all", "today" and "planned" to a filter.
func ParseFilter(s string) (TaskFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "today":
		return FilterToday, nil
	case "planned":
		return FilterPlanned, nil
	default:
		return 0, planerr.Newf(planerr.InvalidInput, "unknown filter %q; valid: all, today, planned", s)
	}
}

func (f TaskFilter) String() string {
	switch f {
	case FilterToday:
		return "today"
	case FilterPlanned:
		return "planned"
	default:
		return "all"
	}
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error; err != nil {
		return storeErr(err, "create task")
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	q := r.db.WithContext(ctx).Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	})
	switch filter {
	case FilterToday:
		q = q.Where("is_scheduled_today = ?", true)
	case FilterPlanned:
		q = q.Where("due_date IS NOT NULL")
	}

	var tasks []model.Task
	if err := q.Order("due_date IS NULL, due_date ASC, created_at DESC").Find(&tasks).Error; err != nil {
		return nil, storeErr(err, "list tasks")
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("id = ?", id).First(&task).Error
	if err != nil {
		return nil, storeErr(err, fmt.Sprintf("find task %s", id))
	}
	return &task, nil
}

// FindByPrefix resolves a unique id prefix.
func (r *TaskRepository) FindByPrefix(ctx context.Context, prefix string) (*model.Task, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" || strings.ContainsAny(prefix, "%_") {
		return nil, planerr.Newf(planerr.InvalidInput, "invalid task id %q", prefix)
	}
	var ids []string
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id LIKE ?", prefix+"%").Limit(2).Pluck("id", &ids).Error; err != nil {
		return nil, storeErr(err, "find task by prefix")
	}
	switch len(ids) {
	case 0:
		return nil, planerr.Newf(planerr.NotFound, "task %q not found", prefix)
	case 1:
		return r.FindByID(ctx, ids[0])
	default:
		return nil, planerr.Newf(planerr.InvalidInput, "task id %q is ambiguous", prefix)
	}
}

// Update applies patch and returns the stored task.
func (r *TaskRepository) Update(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	cols := patch.Columns()
	if len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			return nil, storeErr(res.Error, "update task")
		}
		if res.RowsAffected == 0 {
			return nil, planerr.Newf(planerr.NotFound, "task %s not found", id)
		}
	}
	return r.FindByID(ctx, id)
}

// ClaimRepeatSpawn flips repeat_spawned from false to true for a repeating
// task. It reports whether this call made the change.
func (r *TaskRepository) ClaimRepeatSpawn(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND repeat_spawned = ? AND repeat_type <> ''", id, false).
		Update("repeat_spawned", true)
	if res.Error != nil {
		return false, storeErr(res.Error, "claim repeat spawn")
	}
	return res.RowsAffected == 1, nil
}

// Delete removes a task and its steps.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("task_id = ?", id).Delete(&model.Step{}).Error; err != nil {
		return storeErr(err, "delete steps")
	}
	res := db.Where("id = ?", id).Delete(&model.Task{})
	if res.Error != nil {
		return storeErr(res.Error, "delete task")
	}
	if res.RowsAffected == 0 {
		return planerr.Newf(planerr.NotFound, "task %s not found", id)
	}
	return nil
}

// storeErr maps gorm errors onto the planerr taxonomy.
func storeErr(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return planerr.Wrap(planerr.NotFound, err, op)
	}
	return planerr.Wrap(planerr.StoreUnavailable, err, op)
}
