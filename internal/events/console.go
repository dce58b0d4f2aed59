// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     events
// Description: Terminal rendering of updates and results
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package events

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#10B981")
	colorError     = lipgloss.Color("#EF4444")
	colorMuted     = lipgloss.Color("#6B7280")
)

// Styles
var (
	statusStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)

	resultStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	seqStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)
)

// Console writes results to out and updates to status
type Console struct {
	mu     sync.Mutex
	out    io.Writer
	status io.Writer

	// ShowEmpty prints results with empty text
	ShowEmpty bool
}

// NewConsole creates a console listener. Results go to out, updates to status.
func NewConsole(out, status io.Writer) *Console {
	return &Console{out: out, status: status}
}

// OnUpdate implements Listener
func (c *Console) OnUpdate(u Update) {
	if c.status == nil {
		return
	}

	line := "● " + u.Message
	if u.Err != nil {
		line += ": " + u.Err.Error()
	}
	style := statusStyle
	if u.Kind.IsError() {
		style = errorStyle
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.status, style.Render(line))
}

// OnResult implements Listener
func (c *Console) OnResult(r Result) {
	text := strings.TrimSpace(r.Text)
	if text == "" && !c.ShowEmpty {
		return
	}

	prefix := fmt.Sprintf("[%d]", r.Seq)
	if r.Source == SourceFile {
		prefix = "[file]"
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, seqStyle.Render(prefix)+" "+resultStyle.Render(text))
}
