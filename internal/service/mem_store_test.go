package service

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
	"daily-tasks/internal/planerr"
	"daily-tasks/internal/repository"
)

// memStore is an in-memory Store. Atomic restores a snapshot when fn fails.
type memStore struct {
	mu      sync.Mutex
	tasks   map[string]model.Task
	markers map[string]calendar.Date
	seq     int

	updates int
	// failUpdate makes UpdateTask fail for the given task id.
	failUpdate string
}

func newMemStore(tasks ...model.Task) *memStore {
	s := &memStore{tasks: make(map[string]model.Task), markers: make(map[string]calendar.Date)}
	for _, t := range tasks {
		s.put(t)
	}
	return s
}

func (s *memStore) put(t model.Task) {
	s.seq++
	for i := range t.Steps {
		t.Steps[i].TaskID = t.ID
		t.Steps[i].Position = i
	}
	s.tasks[t.ID] = t
}

func cloneTask(t model.Task) model.Task {
	t.Steps = slices.Clone(t.Steps)
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

func (s *memStore) ListTasks(_ context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	var out []model.Task
	for _, t := range s.tasks {
		switch {
		case filter == repository.FilterToday && !t.IsToday:
			continue
		case filter == repository.FilterPlanned && t.DueDate == nil:
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) GetTask(_ context.Context, id string) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, planerr.Newf(planerr.NotFound, "task %s not found", id)
	}
	c := cloneTask(t)
	return &c, nil
}

func (s *memStore) FindTask(ctx context.Context, prefix string) (*model.Task, error) {
	var match []string
	for id := range s.tasks {
		if strings.HasPrefix(id, prefix) {
			match = append(match, id)
		}
	}
	if len(match) != 1 {
		return nil, planerr.Newf(planerr.NotFound, "task %q not found", prefix)
	}
	return s.GetTask(ctx, match[0])
}

func (s *memStore) CreateTask(_ context.Context, task *model.Task) error {
	if _, ok := s.tasks[task.ID]; ok {
		return planerr.Newf(planerr.StoreUnavailable, "duplicate id %s", task.ID)
	}
	t := cloneTask(*task)
	t.Steps = nil
	s.put(t)
	return nil
}

func (s *memStore) UpdateTask(_ context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	t, ok := s.tasks[id]
	if !ok {
		return nil, planerr.Newf(planerr.NotFound, "task %s not found", id)
	}
	if id == s.failUpdate {
		return nil, planerr.New(planerr.StoreUnavailable, "disk full")
	}
	patch.Apply(&t)
	s.tasks[id] = t
	s.updates++
	c := cloneTask(t)
	return &c, nil
}

func (s *memStore) DeleteTask(_ context.Context, id string) error {
	if _, ok := s.tasks[id]; !ok {
		return planerr.Newf(planerr.NotFound, "task %s not found", id)
	}
	delete(s.tasks, id)
	return nil
}

func (s *memStore) ClaimRepeatSpawn(_ context.Context, id string) (bool, error) {
	t, ok := s.tasks[id]
	if !ok || t.RepeatSpawned || t.RepeatType == "" {
		return false, nil
	}
	t.RepeatSpawned = true
	s.tasks[id] = t
	return true, nil
}

func (s *memStore) CreateStep(_ context.Context, taskID string, step *model.Step) error {
	t, ok := s.tasks[taskID]
	if !ok {
		return planerr.Newf(planerr.NotFound, "task %s not found", taskID)
	}
	step.TaskID = taskID
	step.Position = len(t.Steps)
	t.Steps = append(slices.Clone(t.Steps), *step)
	s.tasks[taskID] = t
	return nil
}

func (s *memStore) SetStepCompleted(_ context.Context, stepID string, completed bool) error {
	for id, t := range s.tasks {
		for i := range t.Steps {
			if t.Steps[i].ID == stepID {
				t.Steps = slices.Clone(t.Steps)
				t.Steps[i].Completed = completed
				s.tasks[id] = t
				return nil
			}
		}
	}
	return planerr.Newf(planerr.NotFound, "step %s not found", stepID)
}

func (s *memStore) DeleteStep(_ context.Context, stepID string) error {
	for id, t := range s.tasks {
		for i := range t.Steps {
			if t.Steps[i].ID == stepID {
				t.Steps = slices.Delete(slices.Clone(t.Steps), i, i+1)
				s.tasks[id] = t
				return nil
			}
		}
	}
	return planerr.Newf(planerr.NotFound, "step %s not found", stepID)
}

func (s *memStore) LastRefresh(_ context.Context, name string) (calendar.Date, bool, error) {
	d, ok := s.markers[name]
	return d, ok, nil
}

func (s *memStore) UpsertLastRefresh(_ context.Context, name string, day calendar.Date) error {
	s.markers[name] = day
	return nil
}

func (s *memStore) Atomic(_ context.Context, fn func(Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks := make(map[string]model.Task, len(s.tasks))
	for id, t := range s.tasks {
		tasks[id] = cloneTask(t)
	}
	markers := make(map[string]calendar.Date, len(s.markers))
	for k, v := range s.markers {
		markers[k] = v
	}
	updates := s.updates

	if err := fn(s); err != nil {
		s.tasks, s.markers, s.updates = tasks, markers, updates
		return err
	}
	return nil
}
