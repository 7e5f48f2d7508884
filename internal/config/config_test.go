package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"daily-tasks/internal/planerr"
	"daily-tasks/internal/recurrence"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dailytasks.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DatabaseURL != "daily_tasks.db" || cfg.SyncSchedule != "1m" || cfg.JobTimeout != 30*time.Second {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Location != time.Local || cfg.WeeklySameDay != recurrence.SameWeekdayStrict {
		t.Errorf("location/policy = %v/%v", cfg.Location, cfg.WeeklySameDay)
	}
	if cfg.BotEnabled() {
		t.Error("bot enabled without token")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
telegram_token: file-token
telegram_chat_id: 42
database_url: /tmp/tasks.db
timezone: Europe/Moscow
sync_schedule: "00:05"
job_timeout: 10s
weekly_same_day: next-week
`)
	t.Setenv("TELEGRAM_TOKEN", "env-token")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.TelegramToken != "env-token" {
		t.Errorf("token = %q, env should win", cfg.TelegramToken)
	}
	if cfg.TelegramChatID != 42 || cfg.DatabaseURL != "/tmp/tasks.db" || cfg.SyncSchedule != "00:05" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Location.String() != "Europe/Moscow" || cfg.JobTimeout != 10*time.Second {
		t.Errorf("location %v timeout %v", cfg.Location, cfg.JobTimeout)
	}
	if cfg.WeeklySameDay != recurrence.SameWeekdayNextWeek || !cfg.BotEnabled() {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"timezone":     "timezone: Mars/Olympus\n",
		"schedule":     "sync_schedule: often\n",
		"timeout":      "job_timeout: -1s\n",
		"policy":       "weekly_same_day: sometimes\n",
		"missing chat": "telegram_token: abc\n",
		"broken yaml":  "sync_schedule: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			if !errors.Is(err, planerr.ErrInvalidInput) {
				t.Errorf("err = %v, want InvalidInput", err)
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing explicit config file accepted")
	}
}

func TestWatchWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	l := NewLoader("")
	if _, err := l.Load(); err != nil {
		t.Fatal(err)
	}
	if l.Watch(func(Config, error) {}) {
		t.Error("Watch should report no file")
	}
}
