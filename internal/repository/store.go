package repository

import (
	"context"

	"gorm.io/gorm"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
)

// Store bundles the repositories over one connection or transaction.
type Store struct {
	db      *gorm.DB
	tasks   *TaskRepository
	steps   *StepRepository
	markers *MarkerRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:      db,
		tasks:   NewTaskRepository(db),
		steps:   NewStepRepository(db),
		markers: NewMarkerRepository(db),
	}
}

// Atomic runs fn inside a transaction; fn's error rolls everything back.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *Store) ListTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	return s.tasks.List(ctx, filter)
}

func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	return s.tasks.FindByID(ctx, id)
}

func (s *Store) FindTask(ctx context.Context, idOrPrefix string) (*model.Task, error) {
	return s.tasks.FindByPrefix(ctx, idOrPrefix)
}

func (s *Store) CreateTask(ctx context.Context, task *model.Task) error {
	return s.tasks.Create(ctx, task)
}

func (s *Store) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	return s.tasks.Update(ctx, id, patch)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return s.tasks.Delete(ctx, id)
}

func (s *Store) ClaimRepeatSpawn(ctx context.Context, id string) (bool, error) {
	return s.tasks.ClaimRepeatSpawn(ctx, id)
}

func (s *Store) CreateStep(ctx context.Context, taskID string, step *model.Step) error {
	return s.steps.Create(ctx, taskID, step)
}

func (s *Store) SetStepCompleted(ctx context.Context, stepID string, completed bool) error {
	return s.steps.SetCompleted(ctx, stepID, completed)
}

func (s *Store) DeleteStep(ctx context.Context, stepID string) error {
	return s.steps.Delete(ctx, stepID)
}

func (s *Store) LastRefresh(ctx context.Context, name string) (calendar.Date, bool, error) {
	return s.markers.Get(ctx, name)
}

func (s *Store) UpsertLastRefresh(ctx context.Context, name string, day calendar.Date) error {
	return s.markers.Upsert(ctx, name, day)
}
