package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"daily-tasks/internal/model"
	"daily-tasks/internal/planerr"
	"daily-tasks/internal/recurrence"
	"daily-tasks/internal/repository"
)

// TaskInput represents data required to create a task.
type TaskInput struct {
	Title   string
	Memo    string
	DueDate *time.Time
	Today   bool
	Rule    recurrence.Rule
	Steps   []string
}

// Completion is the outcome of a completion toggle.
type Completion struct {
	Task *model.Task
	// Spawned is the next occurrence created by this toggle, if any.
	Spawned *model.Task
}

// TaskService wraps task-related business logic.
type TaskService struct {
	store       Store
	occurrences *OccurrenceService
	log         zerolog.Logger
	newID       func() string
}

func NewTaskService(store Store, occurrences *OccurrenceService, log zerolog.Logger) *TaskService {
	return &TaskService{
		store:       store,
		occurrences: occurrences,
		log:         log.With().Str("component", "tasks").Logger(),
		newID:       uuid.NewString,
	}
}

func (s *TaskService) CreateTask(ctx context.Context, input TaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, planerr.New(planerr.InvalidInput, "title is required")
	}
	if err := recurrence.Validate(input.Rule); err != nil {
		return nil, err
	}

	task := model.Task{
		ID:      s.newID(),
		Title:   title,
		Memo:    input.Memo,
		IsToday: input.Today,
	}
	if input.DueDate != nil {
		due := input.DueDate.UTC()
		task.DueDate = &due
	}
	task.SetRule(input.Rule)

	err := s.store.Atomic(ctx, func(st Store) error {
		if err := st.CreateTask(ctx, &task); err != nil {
			return err
		}
		for _, title := range input.Steps {
			if title = strings.TrimSpace(title); title == "" {
				continue
			}
			step := model.Step{ID: s.newID(), Title: title}
			if err := st.CreateStep(ctx, task.ID, &step); err != nil {
				return err
			}
			task.Steps = append(task.Steps, step)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("task_id", task.ID).Msg("task created")
	return &task, nil
}

func (s *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	return s.store.ListTasks(ctx, filter)
}

// GetTask looks a task up by full id or unique id prefix.
func (s *TaskService) GetTask(ctx context.Context, idOrPrefix string) (*model.Task, error) {
	return s.store.FindTask(ctx, idOrPrefix)
}

// SetCompleted records a completion toggle. A false to true transition on a
// repeating task spawns the next occurrence in the same transaction.
func (s *TaskService) SetCompleted(ctx context.Context, id string, completed bool) (*Completion, error) {
	var out Completion
	err := s.store.Atomic(ctx, func(st Store) error {
		before, err := st.GetTask(ctx, id)
		if err != nil {
			return err
		}
		task, err := st.UpdateTask(ctx, id, model.TaskPatch{Completed: model.Ptr(completed)})
		if err != nil {
			return err
		}
		out.Task = task
		if !completed || before.Completed {
			return nil
		}
		out.Spawned, err = s.occurrences.spawn(ctx, st, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetToday is the manual today toggle.
func (s *TaskService) SetToday(ctx context.Context, id string, today bool) (*model.Task, error) {
	return s.store.UpdateTask(ctx, id, model.TaskPatch{IsToday: model.Ptr(today)})
}

// SetRepeat replaces the task's rule; nil removes it. The spawned flag is
// reset so the new rule applies to the next completion.
func (s *TaskService) SetRepeat(ctx context.Context, id string, rule recurrence.Rule) (*model.Task, error) {
	if err := recurrence.Validate(rule); err != nil {
		return nil, err
	}
	return s.store.UpdateTask(ctx, id, model.TaskPatch{Rule: &rule, RepeatSpawned: model.Ptr(false)})
}

// ResetRepeat clears the spawned flag so the next completion spawns again.
func (s *TaskService) ResetRepeat(ctx context.Context, id string) (*model.Task, error) {
	return s.store.UpdateTask(ctx, id, model.TaskPatch{RepeatSpawned: model.Ptr(false)})
}

func (s *TaskService) SetDueDate(ctx context.Context, id string, due *time.Time) (*model.Task, error) {
	if due != nil {
		utc := due.UTC()
		due = &utc
	}
	return s.store.UpdateTask(ctx, id, model.TaskPatch{DueDate: &due})
}

func (s *TaskService) AddStep(ctx context.Context, taskID, title string) (*model.Step, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, planerr.New(planerr.InvalidInput, "step title is required")
	}
	step := model.Step{ID: s.newID(), Title: title}
	if err := s.store.CreateStep(ctx, taskID, &step); err != nil {
		return nil, err
	}
	return &step, nil
}

func (s *TaskService) SetStepCompleted(ctx context.Context, stepID string, completed bool) error {
	return s.store.SetStepCompleted(ctx, stepID, completed)
}

func (s *TaskService) DeleteStep(ctx context.Context, stepID string) error {
	return s.store.DeleteStep(ctx, stepID)
}

// DeleteTask removes a task and its steps.
func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, id)
}
