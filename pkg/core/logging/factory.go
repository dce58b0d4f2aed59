// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     logging
// Description: Process-wide logger configuration with rotating file output
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	// Service name, used as logger name by NewLogger
	ServiceName string

	// Log level (debug, info, warn, error)
	Level string

	// Output format: "json" or "text" (default: json)
	Format string

	// File enables a rotating log file in addition to stderr
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool

	// Additional outputs (besides stderr and File)
	AdditionalOutputs []io.Writer

	// Quiet drops the stderr output
	Quiet bool
}

// DefaultLoggerConfig returns a default configuration
func DefaultLoggerConfig(serviceName string) LoggerConfig {
	return LoggerConfig{
		ServiceName: serviceName,
		Level:       "info",
		Format:      "json",
		MaxSizeMB:   10,
		MaxBackups:  3,
		MaxAgeDays:  28,
	}
}

type sink struct {
	level  Level
	format Format
	out    io.Writer
	mu     *sync.Mutex
	closer io.Closer
}

func (s *sink) logger(name string) *Logger {
	return &Logger{
		name:   name,
		level:  s.level,
		format: s.format,
		out:    s.out,
		mu:     s.mu,
	}
}

var (
	globalMu   sync.RWMutex
	globalSink = &sink{level: LevelInfo, format: FormatJSON, out: os.Stderr, mu: &sync.Mutex{}}
)

func defaultSink() *sink {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalSink
}

func buildSink(cfg LoggerConfig) *sink {
	var writers []io.Writer
	if !cfg.Quiet {
		writers = append(writers, os.Stderr)
	}

	var closer io.Closer
	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writers = append(writers, rotator)
		closer = rotator
	}
	writers = append(writers, cfg.AdditionalOutputs...)

	var out io.Writer = io.Discard
	switch len(writers) {
	case 0:
	case 1:
		out = writers[0]
	default:
		out = io.MultiWriter(writers...)
	}

	return &sink{
		level:  ParseLevel(cfg.Level),
		format: ParseFormat(cfg.Format),
		out:    out,
		mu:     &sync.Mutex{},
		closer: closer,
	}
}

// NewLogger creates a standalone logger that does not touch the global settings
func NewLogger(cfg LoggerConfig) *Logger {
	return buildSink(cfg).logger(cfg.ServiceName)
}

// Configure installs cfg as the process-wide settings used by New.
// Loggers created before the call keep their previous output.
func Configure(cfg LoggerConfig) {
	s := buildSink(cfg)

	globalMu.Lock()
	old := globalSink
	globalSink = s
	globalMu.Unlock()

	if old.closer != nil {
		_ = old.closer.Close()
	}
}

// Close flushes and closes the rotating log file, if any
func Close() error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalSink.closer == nil {
		return nil
	}
	err := globalSink.closer.Close()
	globalSink.closer = nil
	return err
}
