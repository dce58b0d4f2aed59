package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"ERROR", LevelError},
		{"invalid", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("my-service")

	if cfg.ServiceName != "my-service" {
		t.Errorf("ServiceName = %v, want my-service", cfg.ServiceName)
	}
	if cfg.Level != "info" {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %v, want json", cfg.Format)
	}
}

func newBufferLogger(level, format string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := DefaultLoggerConfig("test")
	cfg.Level = level
	cfg.Format = format
	cfg.Quiet = true
	cfg.AdditionalOutputs = []io.Writer{&buf}
	return NewLogger(cfg), &buf
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := newBufferLogger("debug", "json")

	logger.Info("chunk queued", "seq", 3, "session", "abc", "err", errors.New("boom"))

	var data map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if data["message"] != "chunk queued" {
		t.Errorf("message = %v", data["message"])
	}
	if data["level"] != "info" {
		t.Errorf("level = %v", data["level"])
	}
	if data["logger"] != "test" {
		t.Errorf("logger = %v", data["logger"])
	}
	if data["seq"] != float64(3) {
		t.Errorf("seq = %v", data["seq"])
	}
	if data["err"] != "boom" {
		t.Errorf("err = %v, want boom", data["err"])
	}
}

func TestLogger_TextOutput(t *testing.T) {
	logger, buf := newBufferLogger("info", "text")

	logger.Warn("sink failed", "path", "/tmp/x.wav")

	out := buf.String()
	if !strings.Contains(out, "[WRN]") || !strings.Contains(out, "{test}") {
		t.Errorf("unexpected text output: %q", out)
	}
	if !strings.Contains(out, "path=/tmp/x.wav") {
		t.Errorf("missing field in output: %q", out)
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	logger, buf := newBufferLogger("warn", "json")

	logger.Debug("hidden")
	logger.Info("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}

	logger.Error("shown")
	if buf.Len() == 0 {
		t.Error("expected error entry to be written")
	}

	debug := logger.WithLevel(LevelDebug)
	if !debug.Enabled(LevelDebug) {
		t.Error("WithLevel(LevelDebug) should enable debug")
	}
	if logger.Enabled(LevelDebug) {
		t.Error("WithLevel must not modify the original logger")
	}
}

func TestLogger_With(t *testing.T) {
	logger, buf := newBufferLogger("info", "json")

	logger.With("session", "s1").Info("started", "seq", 1)

	var data map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if data["session"] != "s1" {
		t.Errorf("session = %v, want s1", data["session"])
	}
}

func TestLogger_OddKeyValues(t *testing.T) {
	logger, buf := newBufferLogger("info", "json")

	// Should not panic with odd number of key-values
	logger.Info("message", "key1", "value1", "orphan")
	if buf.Len() == 0 {
		t.Error("expected output")
	}
}

func TestToFields(t *testing.T) {
	if fields := toFields(); fields != nil {
		t.Error("toFields() with no args should return nil")
	}

	fields := toFields("key1", "value1", "key2", 42)
	if fields["key1"] != "value1" {
		t.Errorf("fields[key1] = %v, want value1", fields["key1"])
	}
	if fields["key2"] != 42 {
		t.Errorf("fields[key2] = %v, want 42", fields["key2"])
	}

	fields = toFields(123, "value")
	if len(fields) != 0 {
		t.Errorf("Non-string key should be skipped, got %v fields", len(fields))
	}
}

func TestConfigure_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "livescribe.log")

	cfg := DefaultLoggerConfig("test")
	cfg.File = path
	cfg.Quiet = true
	Configure(cfg)
	defer Configure(LoggerConfig{Level: "info", Quiet: true})

	New("recorder").Info("recording started", "session", "s1")
	if err := Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), "recording started") {
		t.Errorf("log file missing entry: %q", data)
	}
}

func BenchmarkLogger_Info(b *testing.B) {
	logger, _ := newBufferLogger("info", "json")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "iteration", i)
	}
}
