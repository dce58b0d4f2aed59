// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     logging
// Description: JSON and text formatting of log entries
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Format selects the output encoding
type Format int

const (
	FormatJSON Format = iota
	FormatText
)

// ParseFormat parses "json" or "text". Anything else is JSON.
func ParseFormat(format string) Format {
	if strings.EqualFold(strings.TrimSpace(format), "text") {
		return FormatText
	}
	return FormatJSON
}

// Fields are the key-value pairs attached to an entry
type Fields map[string]interface{}

// entry is a single log line before formatting
type entry struct {
	time    time.Time
	level   Level
	logger  string
	message string
	fields  Fields
}

func (e *entry) format(f Format) []byte {
	if f == FormatText {
		return e.text()
	}
	return e.json()
}

func (e *entry) json() []byte {
	data := make(map[string]interface{}, len(e.fields)+4)
	for k, v := range e.fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	data["timestamp"] = e.time.Format(time.RFC3339)
	data["level"] = e.level.String()
	data["message"] = e.message
	if e.logger != "" {
		data["logger"] = e.logger
	}

	out, err := json.Marshal(data)
	if err != nil {
		out = []byte(fmt.Sprintf(`{"level":%q,"message":%q,"format_error":%q}`, e.level, e.message, err))
	}
	return append(out, '\n')
}

func (e *entry) text() []byte {
	var b strings.Builder
	b.WriteString(e.time.Format("15:04:05"))
	b.WriteString(" [")
	b.WriteString(e.level.shortString())
	b.WriteString("]")
	if e.logger != "" {
		b.WriteString(" {")
		b.WriteString(e.logger)
		b.WriteString("}")
	}
	b.WriteString(" ")
	b.WriteString(e.message)

	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.fields[k])
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
