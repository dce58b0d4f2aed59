// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     errors
// Description: Coded errors for the capture and transcription pipeline
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package errors

import (
	stderrors "errors"
	"fmt"
)

// Code classifies an error for handling and reporting
type Code string

const (
	CodeUnknown          Code = "UNKNOWN"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeDeviceError      Code = "DEVICE_ERROR"
	CodeIOError          Code = "IO_ERROR"
	CodeEngineInit       Code = "ENGINE_INIT"
	CodeEngineCall       Code = "ENGINE_CALL"
	CodeInvalidState     Code = "INVALID_STATE"
	CodeInvalidConfig    Code = "INVALID_CONFIG"
	CodeNotFound         Code = "NOT_FOUND"
)

// String returns the string representation of the code
func (c Code) String() string {
	return string(c)
}

// Sentinels for errors.Is matching by code
var (
	ErrPermissionDenied = &Error{Code: CodePermissionDenied}
	ErrDeviceError      = &Error{Code: CodeDeviceError}
	ErrIOError          = &Error{Code: CodeIOError}
	ErrEngineInit       = &Error{Code: CodeEngineInit}
	ErrEngineCall       = &Error{Code: CodeEngineCall}
	ErrInvalidState     = &Error{Code: CodeInvalidState}
	ErrInvalidConfig    = &Error{Code: CodeInvalidConfig}
	ErrNotFound         = &Error{Code: CodeNotFound}
)

// Error is a coded error carrying the failed operation and its cause
type Error struct {
	Code    Code
	Op      string
	Message string
	Cause   error
}

// New creates a coded error
func New(code Code, op, message string) *Error {
	return &Error{Code: code, Op: op, Message: message}
}

// Newf creates a coded error with a formatted message
func Newf(code Code, op, format string, args ...interface{}) *Error {
	return &Error{Code: code, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and operation. Returns nil for a nil err.
func Wrap(err error, code Code, op, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Op: op, Message: message, Cause: err}
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Code)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// CodeOf returns the code of the first *Error in err's chain
func CodeOf(err error) Code {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is is errors.Is re-exported so callers need a single import
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is errors.As re-exported so callers need a single import
func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}
