package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	coreerr "github.com/msto63/livescribe/pkg/core/errors"
)

func TestDuration_UnmarshalText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"seconds", "30s", 30 * time.Second, false},
		{"minutes", "5m", 5 * time.Minute, false},
		{"milliseconds", "100ms", 100 * time.Millisecond, false},
		{"invalid", "invalid", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalText([]byte(tt.input))

			if (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalText() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && d.Duration != tt.expected {
				t.Errorf("UnmarshalText() = %v, want %v", d.Duration, tt.expected)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	t.Setenv("HOME", "/home/test")
	cfg := Default()

	if cfg.Audio.MaxDuration.Duration != 60*time.Second {
		t.Errorf("Audio.MaxDuration = %v, want 60s", cfg.Audio.MaxDuration.Duration)
	}
	if cfg.Audio.StopTimeout.Duration != 2*time.Second {
		t.Errorf("Audio.StopTimeout = %v, want 2s", cfg.Audio.StopTimeout.Duration)
	}
	if cfg.Engine.Backend != BackendWhisperCLI {
		t.Errorf("Engine.Backend = %v, want %v", cfg.Engine.Backend, BackendWhisperCLI)
	}
	if cfg.VAD.Enabled {
		t.Error("VAD should be disabled by default")
	}
	if cfg.VAD.Mode != 2 {
		t.Errorf("VAD.Mode = %v, want 2", cfg.VAD.Mode)
	}
	if cfg.Transcript.Store != StoreNone {
		t.Errorf("Transcript.Store = %v, want %v", cfg.Transcript.Store, StoreNone)
	}
	if cfg.Recording.OutputDir != "/home/test/.local/share/livescribe/recordings" {
		t.Errorf("Recording.OutputDir = %v", cfg.Recording.OutputDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() on defaults = %v", err)
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml")
	if err == nil {
		t.Fatal("Load() expected error for non-existent file")
	}
	if !coreerr.Is(err, coreerr.ErrNotFound) {
		t.Errorf("Load() error = %v, want NOT_FOUND", err)
	}
}

func TestLoad_TOML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "livescribe.toml")

	configContent := `
[general]
data_dir = "` + tmpDir + `"

[audio]
device = "USB Mic"
max_duration = "30s"

[engine]
backend = "whisper-http"
http_url = "http://127.0.0.1:9000"

[vad]
enabled = true
mode = 0

[transcript]
store = "sqlite"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Audio.Device != "USB Mic" {
		t.Errorf("Audio.Device = %v, want USB Mic", cfg.Audio.Device)
	}
	if cfg.Audio.MaxDuration.Duration != 30*time.Second {
		t.Errorf("Audio.MaxDuration = %v, want 30s", cfg.Audio.MaxDuration.Duration)
	}
	if cfg.Engine.Backend != BackendWhisperHTTP {
		t.Errorf("Engine.Backend = %v, want %v", cfg.Engine.Backend, BackendWhisperHTTP)
	}
	if !cfg.VAD.Enabled || cfg.VAD.Mode != 0 {
		t.Errorf("VAD = %+v, want enabled mode 0", cfg.VAD)
	}
	if cfg.Transcript.Path != filepath.Join(tmpDir, "transcripts.db") {
		t.Errorf("Transcript.Path = %v", cfg.Transcript.Path)
	}

	// Defaults for missing values
	if cfg.Audio.StopTimeout.Duration != 2*time.Second {
		t.Errorf("Audio.StopTimeout = %v, want 2s (default)", cfg.Audio.StopTimeout.Duration)
	}
}

func TestLoad_YAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "livescribe.yaml")

	configContent := `
audio:
  stop_timeout: 500ms
engine:
  model_path: /models/ggml-base.bin
  threads: 2
recording:
  persist: true
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Audio.StopTimeout.Duration != 500*time.Millisecond {
		t.Errorf("Audio.StopTimeout = %v, want 500ms", cfg.Audio.StopTimeout.Duration)
	}
	if cfg.Engine.ModelPath != "/models/ggml-base.bin" {
		t.Errorf("Engine.ModelPath = %v", cfg.Engine.ModelPath)
	}
	if cfg.Engine.Threads != 2 {
		t.Errorf("Engine.Threads = %v, want 2", cfg.Engine.Threads)
	}
	if !cfg.Recording.Persist {
		t.Error("Recording.Persist = false, want true")
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"odd buffer", "[audio]\nbuffer_bytes = 3\n"},
		{"unknown backend", "[engine]\nbackend = \"vosk\"\n"},
		{"vad mode out of range", "[vad]\nmode = 7\n"},
		{"unknown store", "[transcript]\nstore = \"redis\"\n"},
		{"syntax", "[audio\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test config: %v", err)
			}

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if coreerr.CodeOf(err) != coreerr.CodeInvalidConfig {
				t.Errorf("CodeOf(err) = %v, want %v", coreerr.CodeOf(err), coreerr.CodeInvalidConfig)
			}
		})
	}
}

func TestConfig_expandEnvVars(t *testing.T) {
	t.Setenv("LIVESCRIBE_MODELS", "/opt/models")

	cfg := &Config{Engine: EngineConfig{ModelPath: "$LIVESCRIBE_MODELS/ggml-tiny.bin"}}
	cfg.expandEnvVars()

	if cfg.Engine.ModelPath != "/opt/models/ggml-tiny.bin" {
		t.Errorf("ModelPath = %v, want /opt/models/ggml-tiny.bin", cfg.Engine.ModelPath)
	}
}

func TestLoadFromEnv(t *testing.T) {
	originalWd, _ := os.Getwd()
	tmpDir := t.TempDir()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatal(err)
	}
	defer os.Chdir(originalWd)
	t.Setenv("HOME", tmpDir)

	t.Run("no config found", func(t *testing.T) {
		t.Setenv(EnvConfigPath, "")

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() error = %v", err)
		}
		if cfg.Engine.Backend != BackendWhisperCLI {
			t.Errorf("expected defaults, got backend %v", cfg.Engine.Backend)
		}
	})

	t.Run("env path and dotenv", func(t *testing.T) {
		path := filepath.Join(tmpDir, "custom.toml")
		if err := os.WriteFile(path, []byte("[engine]\nmodel_path = \"${LS_TEST_MODEL}\"\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(tmpDir, ".env"), []byte("LS_TEST_MODEL=/dotenv/model.bin\n"), 0644); err != nil {
			t.Fatal(err)
		}
		t.Setenv(EnvConfigPath, path)
		defer os.Unsetenv("LS_TEST_MODEL")

		cfg, err := LoadFromEnv()
		if err != nil {
			t.Fatalf("LoadFromEnv() error = %v", err)
		}
		if cfg.Engine.ModelPath != "/dotenv/model.bin" {
			t.Errorf("ModelPath = %v, want /dotenv/model.bin", cfg.Engine.ModelPath)
		}
	})
}

func TestConfig_String(t *testing.T) {
	out := Default().String()
	if !strings.Contains(out, "[engine]") {
		t.Errorf("String() missing engine section: %q", out)
	}
}
