package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"layerctl/pkg/config"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	requestLog := filepath.Join(tempDir, "requests.log")
	eventLog := filepath.Join(tempDir, "events.log")

	// A previous run's log is rotated away.
	if err := os.WriteFile(serverLog, []byte("previous run\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Requests: config.LogSettings{Path: requestLog, Level: "INFO"},
		Events:   config.LogSettings{Path: eventLog},
	}

	prev := slog.Default()
	cleanup, err := Init(cfg)
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer func() {
		cleanup()
		slog.SetDefault(prev)
		SetEventLogPath("")
	}()

	if _, err := os.Stat(serverLog); os.IsNotExist(err) {
		t.Error("Server log file not created")
	}
	if _, err := os.Stat(requestLog); os.IsNotExist(err) {
		t.Error("Request log file not created")
	}
	old, err := os.ReadFile(serverLog + ".old")
	if err != nil || string(old) != "previous run\n" {
		t.Errorf("expected rotated log, got %q (%v)", old, err)
	}
	if RequestLogger == nil {
		t.Error("RequestLogger was not initialized")
	}

	slog.Info("Layer control attached", "layers", 3)
	if !strings.Contains(GlobalLogCapture.LastLine(), "Layer control attached") {
		t.Errorf("capture missed INFO line, got %q", GlobalLogCapture.LastLine())
	}
}

func TestParseLevel(t *testing.T) {
	defer func() { EnableTrace = false }()

	tests := []struct {
		in    string
		want  slog.Level
		trace bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, false},
		{"bogus", slog.LevelInfo, false},
		{"TRACE", slog.LevelDebug, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			EnableTrace = false
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if EnableTrace != tt.trace {
				t.Errorf("ParseLevel(%q) trace = %v, want %v", tt.in, EnableTrace, tt.trace)
			}
		})
	}
}

func TestLogEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "events.log")
	SetEventLogPath(path)
	defer SetEventLogPath("")

	ts := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	LogEvent(Event{Time: ts, Type: "overlayadd", Layer: "Lakes", Group: "Hydrography"})
	LogEvent(Event{Time: ts, Type: "baselayerchange", Layer: "Satellite"})

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("event log not written: %v", err)
	}
	want := "[2024-05-01 12:30:00] [overlayadd] Lakes (Hydrography)\n" +
		"[2024-05-01 12:30:00] [baselayerchange] Satellite\n"
	if string(data) != want {
		t.Errorf("event log = %q, want %q", data, want)
	}
	if GlobalEventCapture.LastLine() != "[2024-05-01 12:30:00] [baselayerchange] Satellite" {
		t.Errorf("unexpected captured event %q", GlobalEventCapture.LastLine())
	}
}

func TestLogEvent_Disabled(t *testing.T) {
	SetEventLogPath("")
	LogEvent(Event{Type: "overlayadd", Layer: "Lakes"})
}
