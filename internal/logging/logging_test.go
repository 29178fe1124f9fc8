package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConsoleHandler(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Level: "info"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	logger.With("identifier", "10.1/x").Info("retrieving bibtex entry", "source", "crossref")
	logger.Debug("hidden")

	got := buf.String()
	want := "INFO retrieving bibtex entry identifier=10.1/x source=crossref\n"
	if got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestConsoleHandler_QuotesValues(t *testing.T) {
	var buf bytes.Buffer
	logger, _ := New(&buf, Options{Level: "debug"})
	logger.WithGroup("fetch").Warn("no document", "reason", "all sources failed")

	if !strings.Contains(buf.String(), `fetch.reason="all sources failed"`) {
		t.Errorf("output = %q, want grouped quoted attr", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, Options{Format: "json"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hello", "key", "Smith_2020_abcdef0")

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded["key"] != "Smith_2020_abcdef0" {
		t.Errorf("key = %v", decoded["key"])
	}
}

func TestNew_UnknownFormat(t *testing.T) {
	if _, err := New(&bytes.Buffer{}, Options{Format: "xml"}); err == nil {
		t.Error("New() with unknown format should fail")
	}
}
