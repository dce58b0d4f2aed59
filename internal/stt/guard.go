// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     stt
// Description: Engine wrapper containing backend errors and panics
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package stt

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/msto63/livescribe/internal/events"
	"github.com/msto63/livescribe/internal/metrics"
	coreerr "github.com/msto63/livescribe/pkg/core/errors"
	"github.com/msto63/livescribe/pkg/core/logging"
)

// PanicError is a recovered backend panic
type PanicError struct {
	Value interface{}
	Stack []byte
}

// Error implements the error interface
func (e *PanicError) Error() string {
	return fmt.Sprintf("backend panic: %v", e.Value)
}

// GuardConfig holds optional collaborators of a Guard
type GuardConfig struct {
	// Listener receives engine warnings
	Listener events.Listener

	// Metrics is optional
	Metrics *metrics.Metrics

	// Timeout bounds a single backend call; zero means no limit
	Timeout time.Duration
}

// Guard implements Engine on top of a Backend. It tracks the model state
// and converts every backend failure, including panics, into an empty
// result plus a warning.
type Guard struct {
	backend Backend
	cfg     GuardConfig
	logger  *logging.Logger

	mu    sync.RWMutex
	state State
	model ModelConfig
}

// NewGuard wraps backend
func NewGuard(backend Backend, cfg GuardConfig) *Guard {
	if cfg.Listener == nil {
		cfg.Listener = events.Nop{}
	}
	return &Guard{
		backend: backend,
		cfg:     cfg,
		logger:  logging.New("stt-" + backend.Name()),
	}
}

// State returns the lifecycle state
func (g *Guard) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// IsInitialized reports whether the model is ready
func (g *Guard) IsInitialized() bool {
	return g.State() == StateReady
}

// Model returns the configuration of the loaded model
func (g *Guard) Model() ModelConfig {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.model
}

// Initialize loads the model. On failure the engine stays uninitialized.
// Initializing a ready engine with the same config is a no-op; a different
// config must be unloaded first.
func (g *Guard) Initialize(ctx context.Context, cfg ModelConfig) error {
	const op = "stt.Initialize"

	g.mu.Lock()
	switch g.state {
	case StateReady:
		loaded := g.model
		g.mu.Unlock()
		if cfg != loaded {
			g.logger.Warn("Another model is loaded", "loaded", loaded.ModelPath, "requested", cfg.ModelPath)
			return coreerr.Newf(coreerr.CodeInvalidState, op, "model %s is loaded, unload it first", loaded.ModelPath)
		}
		g.logger.Debug("Engine already initialized", "model", loaded.ModelPath)
		return nil
	case StateInitializing:
		g.mu.Unlock()
		return coreerr.New(coreerr.CodeInvalidState, op, "engine is already initializing")
	}
	g.state = StateInitializing
	g.mu.Unlock()

	start := time.Now()
	err := contain(func() error {
		return g.backend.Load(ctx, cfg)
	})

	g.mu.Lock()
	defer g.mu.Unlock()

	if err != nil {
		g.state = StateUninitialized
		g.logger.Error("Model initialization failed", "model", cfg.ModelPath, "error", err)
		return coreerr.Wrap(err, coreerr.CodeEngineInit, op, "model initialization failed")
	}

	g.state = StateReady
	g.model = cfg
	g.logger.Info("Model loaded",
		"model", cfg.ModelPath,
		"language", cfg.EffectiveLanguage(),
		"took", time.Since(start).String())
	return nil
}

// Deinitialize unloads the model. Later transcribe calls are rejected.
func (g *Guard) Deinitialize() {
	g.mu.Lock()
	if g.state != StateReady {
		g.mu.Unlock()
		return
	}
	g.state = StateUninitialized
	model := g.model
	g.model = ModelConfig{}
	g.mu.Unlock()

	if err := contain(g.backend.Unload); err != nil {
		g.warn(coreerr.Wrap(err, coreerr.CodeEngineCall, "stt.Deinitialize", "model unload failed"))
		return
	}
	g.logger.Info("Model unloaded", "model", model.ModelPath)
}

// TranscribeBuffer transcribes samples; "" when not ready or on failure
func (g *Guard) TranscribeBuffer(ctx context.Context, samples []float32) string {
	if !g.IsInitialized() {
		g.logger.Debug("Transcription rejected, engine not initialized", "state", g.State().String())
		return ""
	}

	return g.call(ctx, "stt.TranscribeBuffer", func(ctx context.Context) (string, error) {
		return g.backend.TranscribeSamples(ctx, samples)
	})
}

// TranscribeFile transcribes a file; "" when not ready or on failure
func (g *Guard) TranscribeFile(ctx context.Context, path string) string {
	if !g.IsInitialized() {
		g.logger.Debug("Transcription rejected, engine not initialized", "state", g.State().String())
		return ""
	}

	return g.call(ctx, "stt.TranscribeFile", func(ctx context.Context) (string, error) {
		return g.backend.TranscribeFile(ctx, path)
	})
}

func (g *Guard) call(ctx context.Context, op string, fn func(context.Context) (string, error)) string {
	if g.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.Timeout)
		defer cancel()
	}

	var text string
	err := contain(func() error {
		var err error
		text, err = fn(ctx)
		return err
	})
	if err != nil {
		g.warn(coreerr.Wrap(err, coreerr.CodeEngineCall, op, "transcription failed"))
		return ""
	}
	return text
}

func (g *Guard) warn(err error) {
	var p *PanicError
	if coreerr.As(err, &p) {
		g.logger.Error("Backend panic contained", "error", err, "stack", string(p.Stack))
	} else {
		g.logger.Warn("Backend call failed", "error", err)
	}
	g.cfg.Metrics.EngineFailed()
	g.cfg.Listener.OnUpdate(events.NewUpdate(events.KindEngineWarning, "", events.MsgEngineCallFailure, err))
}

// contain runs fn and converts a panic into a *PanicError
func contain(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}
