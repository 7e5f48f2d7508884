package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
	"daily-tasks/internal/recurrence"
)

// OccurrenceService creates the next instance of a repeating task when the
// current one is completed.
type OccurrenceService struct {
	store    Store
	resolver recurrence.Resolver
	loc      *time.Location
	log      zerolog.Logger
	now      func() time.Time
	newID    func() string
}

func NewOccurrenceService(store Store, resolver recurrence.Resolver, loc *time.Location, log zerolog.Logger) *OccurrenceService {
	if loc == nil {
		loc = time.Local
	}
	return &OccurrenceService{
		store:    store,
		resolver: resolver,
		loc:      loc,
		log:      log.With().Str("component", "occurrences").Logger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// OnTaskCompleted spawns the next occurrence of a completed task whose rule
// has not produced one yet. It returns nil when nothing was spawned,
// including when the rule yields no next date.
func (s *OccurrenceService) OnTaskCompleted(ctx context.Context, task *model.Task) (*model.Task, error) {
	if task == nil || !task.Completed || !task.Repeats() || task.RepeatSpawned {
		return nil, nil
	}
	var next *model.Task
	err := s.store.Atomic(ctx, func(st Store) error {
		var err error
		next, err = s.spawn(ctx, st, task)
		return err
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// spawn runs inside the caller's transaction. The repeat_spawned claim is a
// conditional update, so only one of two racing completions gets past it.
func (s *OccurrenceService) spawn(ctx context.Context, st Store, task *model.Task) (*model.Task, error) {
	if !task.Repeats() || task.RepeatSpawned {
		return nil, nil
	}
	rule, err := task.Rule()
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", task.ID, err)
	}

	claimed, err := st.ClaimRepeatSpawn(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		s.log.Debug().Str("task_id", task.ID).Msg("next occurrence already claimed")
		return nil, nil
	}
	task.RepeatSpawned = true

	base := s.baseDate(task)
	due, ok := s.resolver.Next(rule, base)
	if !ok {
		s.log.Info().Str("task_id", task.ID).Str("rule", recurrence.Describe(rule)).Msg("rule yields no next occurrence")
		return nil, nil
	}
	due = due.UTC()

	next := &model.Task{
		ID:             s.newID(),
		Title:          task.Title,
		Memo:           task.Memo,
		DueDate:        &due,
		RepeatType:     task.RepeatType,
		RepeatWeekdays: task.RepeatWeekdays,
		RepeatDays:     task.RepeatDays,
	}
	if err := st.CreateTask(ctx, next); err != nil {
		return nil, err
	}
	for _, src := range task.Steps {
		step := model.Step{ID: s.newID(), Title: src.Title}
		if err := st.CreateStep(ctx, next.ID, &step); err != nil {
			return nil, err
		}
		next.Steps = append(next.Steps, step)
	}

	s.log.Info().
		Str("task_id", task.ID).
		Str("next_id", next.ID).
		Time("next_due", due).
		Int("steps", len(next.Steps)).
		Msg("spawned next occurrence")
	return next, nil
}

// baseDate is the task's due date, or the start of today when it has none.
func (s *OccurrenceService) baseDate(task *model.Task) time.Time {
	if task.DueDate != nil {
		return task.DueDate.In(s.loc)
	}
	return calendar.StartOfDay(s.now().In(s.loc))
}
