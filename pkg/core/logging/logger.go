// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     logging
// Description: Named key-value logger used by every component
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"io"
	"sync"
	"time"
)

// Logger writes structured entries for one named component
type Logger struct {
	name   string
	level  Level
	format Format
	out    io.Writer
	mu     *sync.Mutex
	fields Fields
}

// New creates a logger for a component using the process-wide settings
// installed by Configure.
func New(name string) *Logger {
	return defaultSink().logger(name)
}

// Name returns the component name
func (l *Logger) Name() string {
	return l.name
}

// WithLevel returns a copy of the logger with the given minimum level
func (l *Logger) WithLevel(level Level) *Logger {
	clone := *l
	clone.level = level
	return &clone
}

// With returns a copy of the logger that adds the key-value pairs to every entry
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	clone := *l
	clone.fields = make(Fields, len(l.fields)+len(keysAndValues)/2)
	for k, v := range l.fields {
		clone.fields[k] = v
	}
	for k, v := range toFields(keysAndValues...) {
		clone.fields[k] = v
	}
	return &clone
}

// Enabled reports whether entries at level are written
func (l *Logger) Enabled(level Level) bool {
	return level >= l.level
}

// Debug logs a debug message with key-value pairs
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.log(LevelDebug, msg, keysAndValues)
}

// Info logs an info message with key-value pairs
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.log(LevelInfo, msg, keysAndValues)
}

// Warn logs a warning message with key-value pairs
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.log(LevelWarn, msg, keysAndValues)
}

// Error logs an error message with key-value pairs
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.log(LevelError, msg, keysAndValues)
}

func (l *Logger) log(level Level, msg string, keysAndValues []interface{}) {
	if !l.Enabled(level) {
		return
	}

	fields := toFields(keysAndValues...)
	if len(l.fields) > 0 {
		if fields == nil {
			fields = make(Fields, len(l.fields))
		}
		for k, v := range l.fields {
			if _, ok := fields[k]; !ok {
				fields[k] = v
			}
		}
	}

	e := entry{
		time:    time.Now(),
		level:   level,
		logger:  l.name,
		message: msg,
		fields:  fields,
	}
	line := e.format(l.format)

	l.mu.Lock()
	_, _ = l.out.Write(line)
	l.mu.Unlock()
}

// toFields converts key-value pairs to Fields. Non-string keys and a
// trailing orphan value are skipped.
func toFields(keysAndValues ...interface{}) Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
