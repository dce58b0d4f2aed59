// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     errors
// Description: Severity classification of error codes
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package errors

// Severity describes how far an error propagates
type Severity int

const (
	// SeverityLocal errors are absorbed by the subsystem and reported to the listener
	SeverityLocal Severity = iota

	// SeveritySession errors end the current recording session only
	SeveritySession

	// SeverityStart errors prevent a session from starting at all
	SeverityStart
)

// String returns the string representation of the severity
func (s Severity) String() string {
	switch s {
	case SeverityLocal:
		return "local"
	case SeveritySession:
		return "session"
	case SeverityStart:
		return "start"
	default:
		return "unknown"
	}
}

// SeverityOf determines the severity for an error code
func SeverityOf(code Code) Severity {
	switch code {
	case CodePermissionDenied, CodeInvalidConfig:
		return SeverityStart
	case CodeDeviceError:
		return SeveritySession
	default:
		return SeverityLocal
	}
}

