package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New("debug", "json", &buf)
	log.Info().Int("cleared", 2).Msg("refreshed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "refreshed" || entry["cleared"] != float64(2) {
		t.Errorf("entry = %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("WARN") != zerolog.WarnLevel {
		t.Error("WARN should parse")
	}
	if ParseLevel("chatty") != zerolog.InfoLevel {
		t.Error("unknown level should fall back to info")
	}
	if ParseLevel("") != zerolog.InfoLevel {
		t.Error("empty level should fall back to info")
	}
}

func TestCronLoggerError(t *testing.T) {
	var buf bytes.Buffer
	l := CronLogger{Log: New("info", "json", &buf)}
	l.Error(errors.New("boom"), "job failed", "entry", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["err"] != "boom" || entry["entry"] != float64(3) {
		t.Errorf("entry = %v", entry)
	}
}
