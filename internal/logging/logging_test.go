package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelWarn},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"error", slog.LevelError},
	}
	for _, tc := range tests {
		got, err := ParseLevel(tc.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) failed: %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tc.in, tc.want, got)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNew_TextToStderr(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "info", Env: "development", App: "todosync", Stderr: &buf})
	if err != nil {
		t.Fatal(err)
	}
	defer closer.Close()

	logger.Debug("hidden")
	logger.Info("loaded tasks", "count", 3)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("expected debug record filtered")
	}
	for _, want := range []string{"loaded tasks", "count=3", "app=todosync", "env=development"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestNew_ProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := New(Options{Level: "warn", Env: "production", App: "todosync", Stderr: &buf})
	if err != nil {
		t.Fatal(err)
	}
	logger.Warn("remote unavailable")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected JSON record, got %q: %v", buf.String(), err)
	}
	if rec["msg"] != "remote unavailable" || rec["env"] != "production" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "todosync.log")
	logger, closer, err := New(Options{Level: "debug", File: path, App: "todosync"})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("written to file")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("unexpected log content %q", data)
	}
}
