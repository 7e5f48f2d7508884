package service

import (
	"context"

	"gorm.io/gorm"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
	"daily-tasks/internal/repository"
)

// Store is the task store the planner services run against.
type Store interface {
	ListTasks(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	FindTask(ctx context.Context, idOrPrefix string) (*model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error)
	DeleteTask(ctx context.Context, id string) error
	// ClaimRepeatSpawn atomically sets repeat_spawned on a repeating task and
	// reports whether this call changed it.
	ClaimRepeatSpawn(ctx context.Context, id string) (bool, error)

	CreateStep(ctx context.Context, taskID string, step *model.Step) error
	SetStepCompleted(ctx context.Context, stepID string, completed bool) error
	DeleteStep(ctx context.Context, stepID string) error

	LastRefresh(ctx context.Context, name string) (calendar.Date, bool, error)
	UpsertLastRefresh(ctx context.Context, name string, day calendar.Date) error

	// Atomic runs fn in one transaction over a Store bound to it.
	Atomic(ctx context.Context, fn func(Store) error) error
}

// NewStore returns the gorm-backed Store.
func NewStore(db *gorm.DB) Store {
	return gormStore{repository.NewStore(db)}
}

type gormStore struct {
	*repository.Store
}

func (s gormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.Store.Atomic(ctx, func(tx *repository.Store) error {
		return fn(gormStore{tx})
	})
}
