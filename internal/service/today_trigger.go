package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// TodayJobName is the scheduler name of the today-set job.
const TodayJobName = "refresh-today"

// TodayTrigger runs the today-set job on a schedule.
type TodayTrigger struct {
	sync    *TodaySyncService
	sched   *SchedulerService
	timeout time.Duration
	log     zerolog.Logger
	notify  func(context.Context, SyncResult)
}

func NewTodayTrigger(syncSvc *TodaySyncService, sched *SchedulerService, timeout time.Duration, log zerolog.Logger) *TodayTrigger {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &TodayTrigger{
		sync:    syncSvc,
		sched:   sched,
		timeout: timeout,
		log:     log.With().Str("component", "today-trigger").Logger(),
	}
}

// OnRefreshed sets a callback for runs that changed the today set.
func (t *TodayTrigger) OnRefreshed(fn func(context.Context, SyncResult)) {
	t.notify = fn
}

// Start runs the job once with force, then schedules it. A failed forced run
// is logged; the marker is not advanced, so the first scheduled run retries.
func (t *TodayTrigger) Start(ctx context.Context, schedule string) (*TriggerHandle, error) {
	if res, err := t.sync.Run(ctx, true); err != nil {
		t.log.Error().Err(err).Msg("initial today refresh failed")
	} else {
		t.refreshed(ctx, res)
	}
	return t.Reschedule(schedule)
}

// Reschedule registers the job without the forced run, replacing any job
// already registered under TodayJobName.
func (t *TodayTrigger) Reschedule(schedule string) (*TriggerHandle, error) {
	id, err := t.sched.ScheduleNamed(TodayJobName, schedule, t.runScheduled)
	if err != nil {
		return nil, err
	}
	return &TriggerHandle{sched: t.sched, name: TodayJobName, id: id, schedule: schedule}, nil
}

func (t *TodayTrigger) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	res, err := t.sync.Run(ctx, false)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			t.log.Warn().Err(err).Msg("scheduled today refresh failed")
		}
		return
	}
	t.refreshed(ctx, res)
}

func (t *TodayTrigger) refreshed(ctx context.Context, res SyncResult) {
	if res.Skipped || t.notify == nil {
		return
	}
	t.notify(ctx, res)
}

// TriggerHandle owns one registration of the today job.
type TriggerHandle struct {
	sched    *SchedulerService
	name     string
	id       cron.EntryID
	schedule string
	once     sync.Once
}

// Schedule returns the schedule the handle was registered with.
func (h *TriggerHandle) Schedule() string {
	return h.schedule
}

// Stop unregisters the job. It is a no-op when the entry was already
// replaced by a newer registration, and safe to call twice.
func (h *TriggerHandle) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		h.sched.Remove(h.name, h.id)
	})
}
