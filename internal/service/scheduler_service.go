package service

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"daily-tasks/internal/logging"
)

// SchedulerService wraps cron-based jobs. Jobs are registered under a name;
// registering a name again replaces the earlier entry.
type SchedulerService struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewSchedulerService(loc *time.Location, log zerolog.Logger) *SchedulerService {
	if loc == nil {
		loc = time.Local
	}
	cl := logging.CronLogger{Log: log.With().Str("component", "cron").Logger()}
	return &SchedulerService{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log:     log.With().Str("component", "scheduler").Logger(),
		entries: make(map[string]cron.EntryID),
	}
}

// ScheduleNamed registers job under name on a schedule accepted by
// ParseSchedule. An entry already registered under name is removed first.
func (s *SchedulerService) ScheduleNamed(name, schedule string, job func()) (cron.EntryID, error) {
	spec, err := ParseSchedule(schedule)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[name]; ok {
		s.cron.Remove(old)
		delete(s.entries, name)
		s.log.Info().Str("job", name).Int("entry", int(old)).Msg("stopped existing job")
	}
	id, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return 0, fmt.Errorf("schedule %s: %w", name, err)
	}
	s.entries[name] = id
	s.log.Info().Str("job", name).Str("spec", spec).Int("entry", int(id)).Msg("scheduled job")
	return id, nil
}

// Remove drops the entry registered under name if it is still id.
func (s *SchedulerService) Remove(name string, id cron.EntryID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[name]; ok && cur == id {
		s.cron.Remove(id)
		delete(s.entries, name)
	}
}

// Entry returns the entry registered under name.
func (s *SchedulerService) Entry(name string) (cron.Entry, bool) {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return cron.Entry{}, false
	}
	return s.cron.Entry(id), true
}

// Len returns the number of registered entries.
func (s *SchedulerService) Len() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// ParseSchedule converts a schedule string into a cron spec. It accepts a
// positive Go duration ("1m", "6h") for a fixed interval, or HH:MM for a
// daily run.
func ParseSchedule(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("schedule is required")
	}
	if strings.Contains(raw, ":") {
		return buildDailySpec(raw)
	}
	interval, err := time.ParseDuration(raw)
	if err != nil {
		return "", fmt.Errorf("invalid schedule %q: %w", raw, err)
	}
	return intervalSpec(interval)
}

func intervalSpec(interval time.Duration) (string, error) {
	if interval <= 0 {
		return "", fmt.Errorf("interval must be positive")
	}
	// Convert to cron spec: every N seconds.
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return fmt.Sprintf("@every %ds", seconds), nil
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// cron format: second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}
