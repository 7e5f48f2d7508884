// Package logging builds the zerolog logger used across the planner and
// adapts it to the loggers expected by cron and gorm.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// New returns a logger writing to w (stdout when nil). format is "json" or
// "console"; unknown levels fall back to info.
func New(level, format string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stdout
	}
	zerolog.TimeFieldFormat = consoleTimeFormat
	zerolog.ErrorFieldName = "err"

	if strings.ToLower(strings.TrimSpace(format)) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// CronLogger adapts zerolog to cron.Logger.
type CronLogger struct {
	Log zerolog.Logger
}

// Info logs routine cron messages at debug level; cron is chatty.
func (l CronLogger) Info(msg string, keysAndValues ...interface{}) {
	withPairs(l.Log.Debug(), keysAndValues).Msg(msg)
}

// Error logs cron failures, including recovered job panics.
func (l CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	withPairs(l.Log.Error().Err(err), keysAndValues).Msg(msg)
}

func withPairs(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i+1 < len(kv); i += 2 {
		key := fmt.Sprint(kv[i])
		switch v := kv[i+1].(type) {
		case time.Time:
			e = e.Time(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}

// GormWriter adapts zerolog to gorm's logger.Writer.
type GormWriter struct {
	Log zerolog.Logger
}

// Printf implements logger.Writer.
func (w GormWriter) Printf(format string, args ...interface{}) {
	w.Log.Warn().Str("component", "gorm").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
