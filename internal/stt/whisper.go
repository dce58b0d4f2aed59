// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     stt
// Description: Whisper backend using the whisper.cpp CLI
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/msto63/livescribe/pkg/core/logging"
)

var (
	whisperOnce   sync.Once
	whisperBinary string
)

// LocateWhisper finds the whisper.cpp binary once per process
func LocateWhisper() string {
	whisperOnce.Do(func() {
		whisperBinary = findWhisperBinary()
	})
	return whisperBinary
}

// findWhisperBinary finds the whisper binary
func findWhisperBinary() string {
	// Check PATH for whisper-cli first (current whisper.cpp), then whisper
	for _, name := range []string{"whisper-cli", "whisper-cpp", "whisper"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	locations := []string{
		"/opt/homebrew/bin/whisper-cli",
		"/usr/local/bin/whisper-cli",
		"/usr/local/bin/whisper",
		"/usr/bin/whisper-cli",
		"/usr/bin/whisper",
	}
	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// WhisperCLI runs whisper.cpp as a child process per call. A crash of the
// native code ends the child process, not this one.
type WhisperCLI struct {
	binaryPath string
	logger     *logging.Logger

	mu      sync.Mutex
	model   ModelConfig
	tempDir string
	seq     atomic.Uint64
}

// NewWhisperCLI creates the backend. An empty binaryPath searches PATH and
// common install locations when the model is loaded.
func NewWhisperCLI(binaryPath string) *WhisperCLI {
	return &WhisperCLI{
		binaryPath: binaryPath,
		logger:     logging.New("stt-whisper-cli"),
	}
}

// Name implements Backend
func (w *WhisperCLI) Name() string {
	return "whisper-cli"
}

// Load verifies binary and model and prepares a temp directory
func (w *WhisperCLI) Load(ctx context.Context, cfg ModelConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.binaryPath == "" {
		w.binaryPath = LocateWhisper()
	}
	if w.binaryPath == "" {
		return errors.New("whisper binary not found")
	}

	if cfg.ModelPath == "" {
		return errors.New("model path is required")
	}
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}
	if cfg.VocabPath != "" {
		// whisper.cpp models embed their vocabulary
		w.logger.Debug("Ignoring separate vocabulary file", "vocab", cfg.VocabPath)
	}

	tempDir, err := os.MkdirTemp("", "livescribe-whisper-")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}

	w.model = cfg
	w.tempDir = tempDir
	w.logger.Debug("Whisper CLI ready", "binary", w.binaryPath, "model", cfg.ModelPath)
	return nil
}

// Unload removes the temp directory
func (w *WhisperCLI) Unload() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.tempDir == "" {
		return nil
	}
	err := os.RemoveAll(w.tempDir)
	w.tempDir = ""
	return err
}

// TranscribeSamples writes samples to a temp WAV and transcribes it
func (w *WhisperCLI) TranscribeSamples(ctx context.Context, samples []float32) (string, error) {
	w.mu.Lock()
	tempDir := w.tempDir
	w.mu.Unlock()
	if tempDir == "" {
		return "", errors.New("model not loaded")
	}

	wavPath := filepath.Join(tempDir, fmt.Sprintf("chunk_%d.wav", w.seq.Add(1)))
	if err := WriteWAV(wavPath, samples); err != nil {
		return "", fmt.Errorf("failed to write WAV file: %w", err)
	}
	defer os.Remove(wavPath)

	return w.TranscribeFile(ctx, wavPath)
}

// TranscribeFile runs whisper.cpp on a file
func (w *WhisperCLI) TranscribeFile(ctx context.Context, path string) (string, error) {
	w.mu.Lock()
	model := w.model
	binary := w.binaryPath
	w.mu.Unlock()

	args := []string{
		"--model", model.ModelPath,
		"--language", model.EffectiveLanguage(),
		"--no-prints",
		"--no-timestamps",
	}
	if model.Threads > 0 {
		args = append(args, "--threads", strconv.Itoa(model.Threads))
	}
	args = append(args, path)

	out, err := w.run(ctx, binary, args)
	if err != nil {
		// Older builds only know the short flags
		short := []string{"-m", model.ModelPath, "-l", model.EffectiveLanguage(), "-np", "-nt", path}
		var err2 error
		if out, err2 = w.run(ctx, binary, short); err2 != nil {
			return "", err
		}
	}

	return cleanOutput(out), nil
}

func (w *WhisperCLI) run(ctx context.Context, binary string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("whisper failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// cleanOutput strips timestamp prefixes ([00:00:00.000 --> 00:00:05.000])
// and joins the lines
func cleanOutput(out string) string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") && strings.Contains(line, "-->") {
			if idx := strings.Index(line, "]"); idx != -1 {
				line = strings.TrimSpace(line[idx+1:])
			}
		}
		if line == "" || isNonSpeechMarker(line) {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

// isNonSpeechMarker matches whisper annotations such as [BLANK_AUDIO]
func isNonSpeechMarker(line string) bool {
	if len(line) < 3 {
		return false
	}
	return (line[0] == '[' && line[len(line)-1] == ']') ||
		(line[0] == '(' && line[len(line)-1] == ')')
}
