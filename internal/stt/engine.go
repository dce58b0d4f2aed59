// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     stt
// Description: Speech-to-text engine contract and backend interface
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package stt

import "context"

// ModelConfig describes the model to load. Paths are resolved by the caller.
type ModelConfig struct {
	// ModelPath is the path to the model file
	ModelPath string

	// VocabPath is the path to a separate vocabulary file, if the backend needs one
	VocabPath string

	// Multilingual selects multilingual decoding; otherwise English is assumed
	Multilingual bool

	// Language is the target language (e.g., "de", "en", "auto")
	Language string

	// Threads is the number of inference threads
	Threads int
}

// EffectiveLanguage returns the language passed to the backend
func (c ModelConfig) EffectiveLanguage() string {
	if !c.Multilingual {
		return "en"
	}
	if c.Language == "" {
		return "auto"
	}
	return c.Language
}

// Backend performs the actual inference. Implementations may fail with an
// error or panic; both are contained by Guard.
type Backend interface {
	// Name identifies the backend in logs
	Name() string

	// Load loads the model
	Load(ctx context.Context, cfg ModelConfig) error

	// Unload frees the model
	Unload() error

	// TranscribeSamples converts 16 kHz mono samples to text
	TranscribeSamples(ctx context.Context, samples []float32) (string, error)

	// TranscribeFile transcribes a WAV file
	TranscribeFile(ctx context.Context, path string) (string, error)
}

// Engine is the capability consumed by the transcription coordinator.
// Transcribe calls never fail: outside StateReady, or when the backend
// fails, they return an empty string.
type Engine interface {
	Initialize(ctx context.Context, cfg ModelConfig) error
	Deinitialize()
	TranscribeBuffer(ctx context.Context, samples []float32) string
	TranscribeFile(ctx context.Context, path string) string
	IsInitialized() bool
	State() State
}

// State is the lifecycle state of the loaded model
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}
