// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     service
// Description: Construction of the service from configuration
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package service

import (
	"fmt"

	"github.com/msto63/livescribe/internal/audio"
	"github.com/msto63/livescribe/internal/events"
	"github.com/msto63/livescribe/internal/metrics"
	"github.com/msto63/livescribe/internal/sink"
	"github.com/msto63/livescribe/internal/stt"
	"github.com/msto63/livescribe/internal/transcript"
	"github.com/msto63/livescribe/internal/vad"
	"github.com/msto63/livescribe/pkg/core/config"
)

// Options overrides parts of the configured pipeline
type Options struct {
	// Devices replaces the PortAudio device factory
	Devices audio.DeviceFactory

	// Backend replaces the configured engine backend
	Backend stt.Backend

	Permission audio.PermissionChecker
	Listener   events.Listener
	Metrics    *metrics.Metrics
}

// NewBackend creates the engine backend selected in the configuration
func NewBackend(cfg config.EngineConfig) (stt.Backend, error) {
	switch cfg.Backend {
	case config.BackendWhisperCLI:
		return stt.NewWhisperCLI(cfg.Binary), nil
	case config.BackendWhisperHTTP:
		return stt.NewWhisperHTTP(cfg.HTTPURL, cfg.Timeout.Duration), nil
	default:
		return nil, fmt.Errorf("unknown engine backend: %s", cfg.Backend)
	}
}

// ModelConfig extracts the model settings
func ModelConfig(cfg config.EngineConfig) stt.ModelConfig {
	return stt.ModelConfig{
		ModelPath:    cfg.ModelPath,
		VocabPath:    cfg.VocabPath,
		Multilingual: cfg.Multilingual,
		Language:     cfg.Language,
		Threads:      cfg.Threads,
	}
}

// FromConfig builds a Service from the application configuration
func FromConfig(cfg *config.Config, opts Options) (*Service, error) {
	backend := opts.Backend
	if backend == nil {
		var err error
		if backend, err = NewBackend(cfg.Engine); err != nil {
			return nil, err
		}
	}

	devices := opts.Devices
	if devices == nil {
		devices = audio.PortAudioFactory(cfg.Audio.Device)
	}

	var opener sink.Opener
	if cfg.Recording.Persist {
		opener = sink.NewWAVOpener(cfg.Recording.OutputDir)
	}

	store, err := transcript.Open(cfg.Transcript.Store, cfg.Transcript.Path)
	if err != nil {
		return nil, err
	}

	svcCfg := Config{
		Devices:       devices,
		Backend:       backend,
		Model:         ModelConfig(cfg.Engine),
		Permission:    opts.Permission,
		Sink:          opener,
		Store:         store,
		Listener:      opts.Listener,
		Metrics:       opts.Metrics,
		BufferBytes:   cfg.Audio.BufferBytes,
		MaxDuration:   cfg.Audio.MaxDuration.Duration,
		StopTimeout:   cfg.Audio.StopTimeout.Duration,
		EngineTimeout: cfg.Engine.Timeout.Duration,
	}

	if cfg.VAD.Enabled {
		vcfg := vad.DefaultConfig()
		vcfg.Mode = cfg.VAD.Mode
		gate, err := vad.NewWebRTC(vcfg)
		if err != nil {
			if store != nil {
				store.Close()
			}
			return nil, err
		}
		svcCfg.Gate = gate
	}

	svc, err := New(svcCfg)
	if err != nil && store != nil {
		store.Close()
	}
	return svc, err
}
