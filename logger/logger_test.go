package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &m); err != nil {
		t.Fatalf("output is not a JSON line: %q: %v", buf.String(), err)
	}
	return m
}

func TestNewWithWriter_JSON(t *testing.T) {
	// Setup
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "debug", Format: FormatJSON}, &buf)

	// Exercise
	l.WithComponent("client").Debug("sent", Fields("status", 200, "method", "GET"))

	// Verify
	m := decodeLine(t, &buf)
	if m["message"] != "sent" || m["level"] != "debug" {
		t.Errorf("unexpected entry: %v", m)
	}
	if m[FieldComponent] != "client" || m["method"] != "GET" || m["status"] != float64(200) {
		t.Errorf("unexpected fields: %v", m)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "warn", Format: FormatJSON}, &buf)

	l.Info("hidden")
	l.Debug("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected no output below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("expected warn output, got %q", buf.String())
	}
	if l.Enabled(zerolog.DebugLevel) || !l.Enabled(zerolog.ErrorLevel) {
		t.Errorf("unexpected Enabled result")
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "loud", Format: FormatJSON}, &buf)
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", Format: FormatConsole, NoColor: true}, &buf)
	l.WithFields(map[string]any{"url": "http://x"}).Info("hello")
	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "url=http://x") {
		t.Errorf("unexpected console output: %q", out)
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing")
	if l.Enabled(zerolog.ErrorLevel) {
		t.Errorf("nop logger should be disabled")
	}
}

func TestConfig(t *testing.T) {
	testCases := []struct {
		title   string
		config  Config
		isValid bool
	}{
		{title: "Defaults", config: Config{}, isValid: true},
		{title: "JSON debug", config: Config{Level: "debug", Format: "json"}, isValid: true},
		{title: "Bad level", config: Config{Level: "loud"}, isValid: false},
		{title: "Bad format", config: Config{Format: "xml"}, isValid: false},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			cfg := tt.config
			cfg.ApplyDefaults()
			err := cfg.Validate()
			if (err == nil) != tt.isValid {
				t.Errorf("unexpected validation result: expected valid=%v, err=%v", tt.isValid, err)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, 2, "skipped", "dangling")
	if len(m) != 1 || m["a"] != 1 {
		t.Errorf("unexpected fields: %v", m)
	}
	d := DurationFields("GET", "http://x", 1500*time.Millisecond)
	if d[FieldDuration] != int64(1500) {
		t.Errorf("unexpected duration: %v", d[FieldDuration])
	}
}
