package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"daily-tasks/internal/calendar"
	"daily-tasks/internal/model"
)

func TestParseSchedule(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "1m", want: "@every 60s"},
		{raw: "6h", want: "@every 21600s"},
		{raw: "500ms", want: "@every 1s"},
		{raw: "00:05", want: "0 5 0 * * *"},
		{raw: " 23:59 ", want: "0 59 23 * * *"},
		{raw: "", wantErr: true},
		{raw: "-1m", wantErr: true},
		{raw: "soon", wantErr: true},
		{raw: "24:00", wantErr: true},
		{raw: "12:60", wantErr: true},
		{raw: "1:2:3", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseSchedule(tt.raw)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseSchedule(%q) = %q, want error", tt.raw, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSchedule(%q) = %q, %v; want %q", tt.raw, got, err, tt.want)
		}
	}
}

func TestScheduleNamedReplaces(t *testing.T) {
	sched := NewSchedulerService(time.UTC, zerolog.Nop())

	first, err := sched.ScheduleNamed("job", "1m", func() {})
	if err != nil {
		t.Fatal(err)
	}
	second, err := sched.ScheduleNamed("job", "10:30", func() {})
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("replacement should get a new entry")
	}
	if n := sched.Len(); n != 1 {
		t.Fatalf("entries = %d, want 1", n)
	}
	if _, err := sched.ScheduleNamed("other", "5m", func() {}); err != nil {
		t.Fatal(err)
	}
	if n := sched.Len(); n != 2 {
		t.Fatalf("entries = %d, want 2", n)
	}

	sched.Remove("job", first)
	if _, ok := sched.Entry("job"); !ok {
		t.Error("removing a stale id dropped the current entry")
	}
	sched.Remove("job", second)
	if _, ok := sched.Entry("job"); ok {
		t.Error("entry still registered")
	}

	if _, err := sched.ScheduleNamed("job", "nope", func() {}); err == nil {
		t.Error("bad schedule accepted")
	}
}

func TestTodayTriggerLifecycle(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC)
	store := newMemStore(model.Task{ID: "a", Title: "a", DueDate: dueAt(calendar.StartOfDay(now))})
	syncSvc := newTestSync(store, time.UTC, now)
	sched := NewSchedulerService(time.UTC, zerolog.Nop())
	trigger := NewTodayTrigger(syncSvc, sched, time.Second, zerolog.Nop())

	var runs []SyncResult
	trigger.OnRefreshed(func(_ context.Context, res SyncResult) { runs = append(runs, res) })

	handle, err := trigger.Start(ctx, "1m")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(runs) != 1 || runs[0].Set != 1 {
		t.Fatalf("forced run = %+v", runs)
	}
	if handle.Schedule() != "1m" {
		t.Errorf("schedule = %q", handle.Schedule())
	}

	// Same day: the scheduled tick is a no-op and does not notify.
	trigger.runScheduled()
	if len(runs) != 1 {
		t.Errorf("skipped run notified: %+v", runs)
	}

	replaced, err := trigger.Reschedule("07:00")
	if err != nil {
		t.Fatal(err)
	}
	if n := sched.Len(); n != 1 {
		t.Fatalf("entries after reschedule = %d, want 1", n)
	}
	if len(runs) != 1 {
		t.Error("reschedule must not force a run")
	}

	handle.Stop()
	if _, ok := sched.Entry(TodayJobName); !ok {
		t.Error("stale handle removed the current job")
	}
	replaced.Stop()
	replaced.Stop()
	if _, ok := sched.Entry(TodayJobName); ok {
		t.Error("job still registered after Stop")
	}

	var none *TriggerHandle
	none.Stop()
}

func TestTodayTriggerStartSurvivesFailedRun(t *testing.T) {
	now := time.Date(2024, time.June, 3, 8, 0, 0, 0, time.UTC)
	store := newMemStore(model.Task{ID: "a", Title: "a", DueDate: dueAt(now)})
	store.failUpdate = "a"
	sched := NewSchedulerService(time.UTC, zerolog.Nop())
	trigger := NewTodayTrigger(newTestSync(store, time.UTC, now), sched, 0, zerolog.Nop())

	handle, err := trigger.Start(context.Background(), "1m")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer handle.Stop()
	if _, ok := store.markers[TodayMarker]; ok {
		t.Error("marker written by a failed run")
	}
	if sched.Len() != 1 {
		t.Error("job not scheduled after failed forced run")
	}
}
