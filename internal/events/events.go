// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     events
// Description: Status updates and transcription results published by the pipeline
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package events

import (
	"sync"
	"time"
)

// Kind identifies a status update
type Kind int

const (
	KindRecordingStarted Kind = iota
	KindRecordingStopped
	KindSinkFailed
	KindDeviceError
	KindModelLoaded
	KindModelLoadFailed
	KindModelUnloaded
	KindProcessingStarted
	KindProcessingDone
	KindEngineWarning
	KindFileNotFound
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindRecordingStarted:
		return "recording_started"
	case KindRecordingStopped:
		return "recording_stopped"
	case KindSinkFailed:
		return "sink_failed"
	case KindDeviceError:
		return "device_error"
	case KindModelLoaded:
		return "model_loaded"
	case KindModelLoadFailed:
		return "model_load_failed"
	case KindModelUnloaded:
		return "model_unloaded"
	case KindProcessingStarted:
		return "processing_started"
	case KindProcessingDone:
		return "processing_done"
	case KindEngineWarning:
		return "engine_warning"
	case KindFileNotFound:
		return "file_not_found"
	default:
		return "unknown"
	}
}

// IsError reports whether the update describes a failure
func (k Kind) IsError() bool {
	switch k {
	case KindSinkFailed, KindDeviceError, KindModelLoadFailed, KindEngineWarning, KindFileNotFound:
		return true
	default:
		return false
	}
}

// Status messages
const (
	MsgRecordingStarted  = "Recording started"
	MsgRecordingStopped  = "Recording stopped"
	MsgModelLoaded       = "Model loaded"
	MsgModelInitFailed   = "Model initialization failed"
	MsgModelUnloaded     = "Model unloaded"
	MsgProcessing        = "Processing..."
	MsgProcessingDone    = "Processing done...!"
	MsgFileNotFound      = "Input file doesn't exist..!"
	MsgSinkFailed        = "Audio file could not be written"
	MsgDeviceError       = "Microphone read failed"
	MsgEngineCallFailure = "Transcription failed"
)

// Update is a status message, distinct from transcription results
type Update struct {
	Kind      Kind
	Message   string
	SessionID string
	Err       error
	Time      time.Time
}

// NewUpdate creates an update stamped with the current time
func NewUpdate(kind Kind, sessionID, message string, err error) Update {
	return Update{
		Kind:      kind,
		Message:   message,
		SessionID: sessionID,
		Err:       err,
		Time:      time.Now(),
	}
}

// Result sources
const (
	SourceLive = "live"
	SourceFile = "file"
)

// Result is the text produced for one chunk or one file
type Result struct {
	SessionID string
	Seq       uint64
	Text      string
	Source    string
	Time      time.Time
}

// Listener receives updates and results from whichever goroutine produced
// them. Implementations must be safe for concurrent use.
type Listener interface {
	OnUpdate(Update)
	OnResult(Result)
}

// Nop discards everything
type Nop struct{}

func (Nop) OnUpdate(Update) {}
func (Nop) OnResult(Result) {}

// Funcs adapts plain functions to a Listener. Nil functions are skipped.
type Funcs struct {
	Update func(Update)
	Result func(Result)
}

// OnUpdate implements Listener
func (f Funcs) OnUpdate(u Update) {
	if f.Update != nil {
		f.Update(u)
	}
}

// OnResult implements Listener
func (f Funcs) OnResult(r Result) {
	if f.Result != nil {
		f.Result(r)
	}
}

// Multi fans out to several listeners in order
type Multi []Listener

// OnUpdate implements Listener
func (m Multi) OnUpdate(u Update) {
	for _, l := range m {
		if l != nil {
			l.OnUpdate(u)
		}
	}
}

// OnResult implements Listener
func (m Multi) OnResult(r Result) {
	for _, l := range m {
		if l != nil {
			l.OnResult(r)
		}
	}
}

// Recorder keeps every update and result in memory
type Recorder struct {
	mu      sync.Mutex
	updates []Update
	results []Result
}

// OnUpdate implements Listener
func (r *Recorder) OnUpdate(u Update) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

// OnResult implements Listener
func (r *Recorder) OnResult(res Result) {
	r.mu.Lock()
	r.results = append(r.results, res)
	r.mu.Unlock()
}

// Updates returns a copy of the recorded updates
func (r *Recorder) Updates() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Update(nil), r.updates...)
}

// Results returns a copy of the recorded results
func (r *Recorder) Results() []Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Result(nil), r.results...)
}

// Count returns how many updates of kind were recorded
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, u := range r.updates {
		if u.Kind == kind {
			n++
		}
	}
	return n
}
