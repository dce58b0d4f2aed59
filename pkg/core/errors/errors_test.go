// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     errors
// Description: Tests for coded errors
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"code only", &Error{Code: CodeNotFound}, "NOT_FOUND"},
		{"with op", New(CodeDeviceError, "audio.Open", "no input device"), "audio.Open: no input device"},
		{"with cause", Wrap(fmt.Errorf("boom"), CodeIOError, "sink.Write", "write failed"), "sink.Write: write failed: boom"},
		{"formatted", Newf(CodeInvalidConfig, "", "bad rate %d", 44), "bad rate 44"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, CodeIOError, "op", "msg"); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("start: %w", New(CodePermissionDenied, "recorder.Start", "microphone access not granted"))

	if !Is(err, ErrPermissionDenied) {
		t.Error("expected wrapped error to match ErrPermissionDenied")
	}
	if Is(err, ErrDeviceError) {
		t.Error("did not expect match with ErrDeviceError")
	}
	if CodeOf(err) != CodePermissionDenied {
		t.Errorf("CodeOf = %s, want %s", CodeOf(err), CodePermissionDenied)
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, CodeIOError, "sink.Write", "write failed")
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(stderrors.New("plain")); got != CodeUnknown {
		t.Errorf("CodeOf(plain) = %s, want %s", got, CodeUnknown)
	}
}

func TestSeverityOf(t *testing.T) {
	tests := []struct {
		code Code
		want Severity
	}{
		{CodePermissionDenied, SeverityStart},
		{CodeInvalidConfig, SeverityStart},
		{CodeDeviceError, SeveritySession},
		{CodeIOError, SeverityLocal},
		{CodeEngineCall, SeverityLocal},
	}

	for _, tt := range tests {
		if got := SeverityOf(tt.code); got != tt.want {
			t.Errorf("SeverityOf(%s) = %s, want %s", tt.code, got, tt.want)
		}
	}
}
