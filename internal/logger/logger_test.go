package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/debemdeboas/zenblog/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

func TestNewLevel(t *testing.T) {
	testCases := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"nonsense", zerolog.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			l, closeFn := newLogger(config.LoggingConfig{Level: tc.level}, &buf)
			defer closeFn()

			if l.GetLevel() != tc.want {
				t.Errorf("Expected level %s, got %s", tc.want, l.GetLevel())
			}
		})
	}
}

func TestConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	l, closeFn := newLogger(config.LoggingConfig{Level: "info"}, &buf)
	defer closeFn()

	l.Debug().Msg("hidden")
	l.Info().Str("post_id", "abc").Msg("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("Debug message should be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") || !strings.Contains(out, "abc") {
		t.Errorf("Expected info message in output, got %q", out)
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zenblog.log")

	var buf bytes.Buffer
	l, closeFn := newLogger(config.LoggingConfig{Level: "info", File: path, MaxSizeMB: 1, MaxBackups: 1}, &buf)

	l.Error().Stack().Err(errors.New("disk full")).Msg("Failed to persist posts")
	if err := closeFn(); err != nil {
		t.Fatalf("close returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(data), &entry); err != nil {
		t.Fatalf("Log file line is not JSON: %v (%q)", err, data)
	}
	if entry["message"] != "Failed to persist posts" {
		t.Errorf("Unexpected message %v", entry["message"])
	}
	if entry["error"] != "disk full" {
		t.Errorf("Unexpected error field %v", entry["error"])
	}
	if _, ok := entry["stack"]; !ok {
		t.Error("Expected a stack field from pkg/errors")
	}
}
