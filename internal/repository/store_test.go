package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
	"daily-tasks/internal/planerr"
	"daily-tasks/internal/recurrence"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "tasks.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return NewStore(db)
}

func mustCreate(t *testing.T, s *Store, task model.Task) *model.Task {
	t.Helper()
	if err := s.CreateTask(context.Background(), &task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	return &task
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	due := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

	mustCreate(t, s, model.Task{ID: "a", Title: "plain"})
	mustCreate(t, s, model.Task{ID: "b", Title: "today", IsToday: true})
	mustCreate(t, s, model.Task{ID: "c", Title: "planned", DueDate: &due})

	tests := []struct {
		filter TaskFilter
		want   int
	}{
		{FilterAll, 3},
		{FilterToday, 1},
		{FilterPlanned, 1},
	}
	for _, tt := range tests {
		tasks, err := s.ListTasks(ctx, tt.filter)
		if err != nil {
			t.Fatalf("ListTasks(%v): %v", tt.filter, err)
		}
		if len(tasks) != tt.want {
			t.Errorf("ListTasks(%v) = %d tasks, want %d", tt.filter, len(tasks), tt.want)
		}
	}
}

func TestUpdateWritesFalseAndNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustCreate(t, s, model.Task{ID: "a", Title: "t", IsToday: true})

	got, err := s.UpdateTask(ctx, "a", model.TaskPatch{IsToday: model.Ptr(false)})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got.IsToday {
		t.Error("IsToday should be cleared")
	}

	_, err = s.UpdateTask(ctx, "missing", model.TaskPatch{IsToday: model.Ptr(true)})
	if !errors.Is(err, planerr.ErrNotFound) {
		t.Errorf("UpdateTask(missing) err = %v, want NotFound", err)
	}
}

func TestRulePersists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	task := model.Task{ID: "r", Title: "weekly"}
	task.SetRule(recurrence.Weekly{Weekdays: []time.Weekday{time.Monday, time.Friday}})
	mustCreate(t, s, task)

	got, err := s.GetTask(ctx, "r")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	rule, err := got.Rule()
	if err != nil {
		t.Fatalf("Rule: %v", err)
	}
	if recurrence.Describe(rule) != "weekly on Mon, Fri" {
		t.Errorf("rule = %v", rule)
	}
}

func TestClaimRepeatSpawnOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	task := model.Task{ID: "r", Title: "monthly"}
	task.SetRule(recurrence.Monthly{Days: []int{10}})
	mustCreate(t, s, task)
	mustCreate(t, s, model.Task{ID: "plain", Title: "no rule"})

	first, err := s.ClaimRepeatSpawn(ctx, "r")
	if err != nil || !first {
		t.Fatalf("first claim = %v, %v", first, err)
	}
	second, err := s.ClaimRepeatSpawn(ctx, "r")
	if err != nil || second {
		t.Errorf("second claim = %v, %v; want false", second, err)
	}
	plain, err := s.ClaimRepeatSpawn(ctx, "plain")
	if err != nil || plain {
		t.Errorf("claim on task without rule = %v, %v; want false", plain, err)
	}
}

func TestStepsKeepOrderAndCascade(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustCreate(t, s, model.Task{ID: "t", Title: "with steps"})

	for _, title := range []string{"one", "two", "three"} {
		step := model.Step{ID: "s-" + title, Title: title}
		if err := s.CreateStep(ctx, "t", &step); err != nil {
			t.Fatalf("CreateStep: %v", err)
		}
	}
	if err := s.SetStepCompleted(ctx, "s-two", true); err != nil {
		t.Fatalf("SetStepCompleted: %v", err)
	}

	got, err := s.GetTask(ctx, "t")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if len(got.Steps) != 3 || got.Steps[0].Title != "one" || got.Steps[2].Title != "three" {
		t.Fatalf("steps = %+v", got.Steps)
	}
	if !got.Steps[1].Completed {
		t.Error("second step should be completed")
	}

	if err := s.CreateStep(ctx, "missing", &model.Step{ID: "x"}); !errors.Is(err, planerr.ErrNotFound) {
		t.Errorf("CreateStep(missing task) err = %v", err)
	}

	if err := s.DeleteTask(ctx, "t"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if err := s.SetStepCompleted(ctx, "s-one", false); !errors.Is(err, planerr.ErrNotFound) {
		t.Errorf("step should be gone with its task, err = %v", err)
	}
}

func TestFindTaskByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustCreate(t, s, model.Task{ID: "abc123", Title: "x"})
	mustCreate(t, s, model.Task{ID: "abd456", Title: "y"})

	got, err := s.FindTask(ctx, "abc")
	if err != nil || got.ID != "abc123" {
		t.Fatalf("FindTask(abc) = %v, %v", got, err)
	}
	if _, err := s.FindTask(ctx, "ab"); !errors.Is(err, planerr.ErrInvalidInput) {
		t.Errorf("ambiguous prefix err = %v", err)
	}
	if _, err := s.FindTask(ctx, "zz"); !errors.Is(err, planerr.ErrNotFound) {
		t.Errorf("unknown prefix err = %v", err)
	}
}

func TestMarkerUpsert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, ok, err := s.LastRefresh(ctx, "today"); err != nil || ok {
		t.Fatalf("fresh marker = %v, %v; want absent", ok, err)
	}
	first := calendar.Date{Year: 2024, Month: time.May, Day: 1}
	second := calendar.Date{Year: 2024, Month: time.May, Day: 2}
	for _, d := range []calendar.Date{first, second} {
		if err := s.UpsertLastRefresh(ctx, "today", d); err != nil {
			t.Fatalf("UpsertLastRefresh: %v", err)
		}
	}
	got, ok, err := s.LastRefresh(ctx, "today")
	if err != nil || !ok || got != second {
		t.Errorf("LastRefresh = %v, %v, %v; want %v", got, ok, err, second)
	}
}

func TestAtomicRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	mustCreate(t, s, model.Task{ID: "a", Title: "t"})

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(tx *Store) error {
		if _, err := tx.UpdateTask(ctx, "a", model.TaskPatch{IsToday: model.Ptr(true)}); err != nil {
			return err
		}
		if err := tx.UpsertLastRefresh(ctx, "today", calendar.Date{Year: 2024, Month: time.May, Day: 1}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Atomic err = %v", err)
	}

	got, err := s.GetTask(ctx, "a")
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.IsToday {
		t.Error("update should have been rolled back")
	}
	if _, ok, _ := s.LastRefresh(ctx, "today"); ok {
		t.Error("marker should have been rolled back")
	}
}

func TestParseFilter(t *testing.T) {
	if f, err := ParseFilter("Planned"); err != nil || f != FilterPlanned {
		t.Errorf("ParseFilter(Planned) = %v, %v", f, err)
	}
	if _, err := ParseFilter("soon"); !errors.Is(err, planerr.ErrInvalidInput) {
		t.Errorf("ParseFilter(soon) err = %v", err)
	}
}
