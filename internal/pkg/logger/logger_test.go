package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	return entry
}

func TestLogger_WithFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "info", Format: "json", Output: &buf})

	log.Event("gate.denied").WithFields(map[string]interface{}{
		"user_id":       "u-1",
		"messages_used": 10,
	}).Warn("request denied")

	entry := decode(t, &buf)
	if entry["event"] != "gate.denied" {
		t.Errorf("event = %v, want gate.denied", entry["event"])
	}
	if entry["user_id"] != "u-1" {
		t.Errorf("user_id = %v, want u-1", entry["user_id"])
	}
	if entry["level"] != "warn" {
		t.Errorf("level = %v, want warn", entry["level"])
	}
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "error", Format: "json", Output: &buf})

	log.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("info written at error level: %q", buf.String())
	}

	log.ErrorWithErr(errors.New("boom"), "failed")
	entry := decode(t, &buf)
	if entry["error"] != "boom" {
		t.Errorf("error = %v, want boom", entry["error"])
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Output: &buf})

	log.Component("worker").Debug("sweep started")
	entry := decode(t, &buf)
	if entry["component"] != "worker" || entry["service"] != "tiergate" {
		t.Errorf("entry = %v", entry)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "debug", want: "debug"},
		{in: " WARN ", want: "warn"},
		{in: "trace", want: "trace"},
		{in: "", want: "info"},
		{in: "loud", want: "info"},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in).String(); got != tt.want {
			t.Errorf("parseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
