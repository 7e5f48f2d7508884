// Package app wires configuration, storage and services into a runnable
// tracker.
package app

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"daily-tasks/internal/bot"
	"daily-tasks/internal/config"
	"daily-tasks/internal/logging"
	"daily-tasks/internal/recurrence"
	"daily-tasks/internal/repository"
	"daily-tasks/internal/service"
)

// App holds the services of one tracker instance.
type App struct {
	Tasks  *service.TaskService
	Today  *service.TodaySyncService
	Digest *service.DigestService

	cfg     config.Config
	loader  *config.Loader
	log     zerolog.Logger
	db      *gorm.DB
	sched   *service.SchedulerService
	trigger *service.TodayTrigger

	mu      sync.Mutex
	handle  *service.TriggerHandle
	stopped bool
}

// New loads settings through loader, opens the store and builds the services.
// Log output goes to w.
func New(loader *config.Loader, w io.Writer) (*App, error) {
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, w)

	db, err := repository.NewDB(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	store := service.NewStore(db)
	resolver := recurrence.Resolver{SameWeekday: cfg.WeeklySameDay}
	occurrences := service.NewOccurrenceService(store, resolver, cfg.Location, log)
	today := service.NewTodaySyncService(store, cfg.Location, log)
	sched := service.NewSchedulerService(cfg.Location, log)

	a := &App{
		Tasks:   service.NewTaskService(store, occurrences, log),
		Today:   today,
		Digest:  service.NewDigestService(store, cfg.Location),
		cfg:     cfg,
		loader:  loader,
		log:     log.With().Str("component", "app").Logger(),
		db:      db,
		sched:   sched,
		trigger: service.NewTodayTrigger(today, sched, cfg.JobTimeout, log),
	}
	a.log.Debug().
		Str("database", cfg.DatabaseURL).
		Str("timezone", cfg.Location.String()).
		Str("weekly_same_day", cfg.WeeklySameDay.String()).
		Msg("app initialised")
	return a, nil
}

// Config returns the settings the app was built with.
func (a *App) Config() config.Config {
	return a.cfg
}

// Run starts the today trigger, the config watcher and, when configured, the
// Telegram bot. It blocks until ctx is cancelled and then shuts down.
func (a *App) Run(ctx context.Context) error {
	var telegram *bot.Bot
	if a.cfg.BotEnabled() {
		b, err := bot.New(a.cfg.TelegramToken, a.cfg.TelegramChatID, a.Tasks, a.Digest, a.Today, a.cfg.Location, a.log)
		if err != nil {
			return err
		}
		telegram = b
		a.trigger.OnRefreshed(telegram.Notify)
	}

	handle, err := a.trigger.Start(ctx, a.cfg.SyncSchedule)
	if err != nil {
		return err
	}
	a.setHandle(handle)
	a.sched.Start()
	defer a.shutdown()

	if a.loader.Watch(a.reload) {
		a.log.Info().Msg("watching config file")
	}
	a.log.Info().Str("schedule", a.cfg.SyncSchedule).Bool("bot", telegram != nil).Msg("daily tasks started")

	if telegram == nil {
		<-ctx.Done()
		return nil
	}
	if err := telegram.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// reload applies a changed schedule to the running trigger. Other settings
// take effect on restart.
func (a *App) reload(cfg config.Config, err error) {
	if err != nil {
		a.log.Error().Err(err).Msg("config reload rejected")
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	if cfg.Location.String() != a.cfg.Location.String() || cfg.DatabaseURL != a.cfg.DatabaseURL {
		a.log.Warn().Msg("timezone and database changes apply after restart")
	}
	if a.handle != nil && cfg.SyncSchedule == a.handle.Schedule() {
		return
	}
	handle, err := a.trigger.Reschedule(cfg.SyncSchedule)
	if err != nil {
		a.log.Error().Err(err).Str("schedule", cfg.SyncSchedule).Msg("reschedule today job")
		return
	}
	a.handle = handle
	a.log.Info().Str("schedule", cfg.SyncSchedule).Msg("today job rescheduled")
}

func (a *App) setHandle(h *service.TriggerHandle) {
	a.mu.Lock()
	a.handle = h
	a.mu.Unlock()
}

func (a *App) shutdown() {
	a.mu.Lock()
	a.handle.Stop()
	a.handle = nil
	a.stopped = true
	a.mu.Unlock()
	a.sched.Stop()
	a.log.Info().Msg("shutdown complete")
}

// Close releases the database.
func (a *App) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
