package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"daily-tasks/internal/planerr"
	"daily-tasks/internal/recurrence"
	"daily-tasks/internal/service"
)

// Config keeps runtime settings for the tracker.
type Config struct {
	TelegramToken  string
	TelegramChatID int64
	DatabaseURL    string
	Location       *time.Location
	SyncSchedule   string
	JobTimeout     time.Duration
	LogLevel       string
	LogFormat      string
	WeeklySameDay  recurrence.SameWeekdayPolicy
}

// BotEnabled reports whether the Telegram UI should run.
func (c Config) BotEnabled() bool {
	return c.TelegramToken != ""
}

// Loader reads Config from environment variables and an optional YAML file.
// Environment variables are the upper-cased keys (TELEGRAM_TOKEN,
// DATABASE_URL, SYNC_SCHEDULE, ...) and take precedence over the file.
type Loader struct {
	mu sync.Mutex
	v  *viper.Viper
}

// NewLoader creates a loader. An empty path looks for dailytasks.yaml in the
// working directory and tolerates its absence.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("dailytasks")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	v.AutomaticEnv()

	v.SetDefault("telegram_token", "")
	v.SetDefault("telegram_chat_id", 0)
	v.SetDefault("database_url", "daily_tasks.db")
	v.SetDefault("timezone", "Local")
	v.SetDefault("sync_schedule", "1m")
	v.SetDefault("job_timeout", "30s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("weekly_same_day", "strict")

	return &Loader{v: v}
}

// Load is shorthand for NewLoader(path).Load().
func Load(path string) (Config, error) {
	return NewLoader(path).Load()
}

// Load reads the file (if any) and returns the validated settings.
func (l *Loader) Load() (Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, planerr.Wrap(planerr.InvalidInput, err, "read config")
		}
	}
	return l.parse()
}

func (l *Loader) parse() (Config, error) {
	v := l.v
	cfg := Config{
		TelegramToken:  strings.TrimSpace(v.GetString("telegram_token")),
		TelegramChatID: v.GetInt64("telegram_chat_id"),
		DatabaseURL:    strings.TrimSpace(v.GetString("database_url")),
		SyncSchedule:   strings.TrimSpace(v.GetString("sync_schedule")),
		LogLevel:       strings.TrimSpace(v.GetString("log_level")),
		LogFormat:      strings.TrimSpace(v.GetString("log_format")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "daily_tasks.db"
	}

	loc, err := parseLocation(v.GetString("timezone"))
	if err != nil {
		return cfg, err
	}
	cfg.Location = loc

	if _, err := service.ParseSchedule(cfg.SyncSchedule); err != nil {
		return cfg, planerr.Wrap(planerr.InvalidInput, err, "sync_schedule")
	}

	cfg.JobTimeout, err = time.ParseDuration(strings.TrimSpace(v.GetString("job_timeout")))
	if err != nil || cfg.JobTimeout <= 0 {
		return cfg, planerr.Newf(planerr.InvalidInput, "job_timeout %q must be a positive duration", v.GetString("job_timeout"))
	}

	cfg.WeeklySameDay, err = recurrence.ParseSameWeekdayPolicy(v.GetString("weekly_same_day"))
	if err != nil {
		return cfg, planerr.Wrap(planerr.InvalidInput, err, "weekly_same_day")
	}

	if cfg.TelegramToken != "" && cfg.TelegramChatID == 0 {
		return cfg, planerr.New(planerr.InvalidInput, "telegram_chat_id is required when telegram_token is set")
	}

	return cfg, nil
}

// Watch calls fn with the reloaded settings whenever the config file changes.
// It returns false when no config file is in use.
func (l *Loader) Watch(fn func(Config, error)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.v.ConfigFileUsed() == "" {
		return false
	}
	l.v.OnConfigChange(func(fsnotify.Event) {
		l.mu.Lock()
		cfg, err := l.parse()
		l.mu.Unlock()
		fn(cfg, err)
	})
	l.v.WatchConfig()
	return true
}

func parseLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, planerr.Wrap(planerr.InvalidInput, err, fmt.Sprintf("timezone %q", name))
	}
	return loc, nil
}
