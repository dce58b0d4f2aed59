// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     audio
// Description: Microphone permission boundary
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package audio

// PermissionChecker reports whether microphone access is granted
type PermissionChecker interface {
	MicrophoneGranted() bool
}

// PermissionFunc adapts a function to a PermissionChecker
type PermissionFunc func() bool

// MicrophoneGranted implements PermissionChecker
func (f PermissionFunc) MicrophoneGranted() bool {
	return f()
}

// AlwaysGranted is used on platforms without a permission model
type AlwaysGranted struct{}

// MicrophoneGranted implements PermissionChecker
func (AlwaysGranted) MicrophoneGranted() bool {
	return true
}
