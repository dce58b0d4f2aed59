// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     service
// Description: Recording service wiring capture, transcription and storage
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/msto63/livescribe/internal/audio"
	"github.com/msto63/livescribe/internal/events"
	"github.com/msto63/livescribe/internal/metrics"
	"github.com/msto63/livescribe/internal/sink"
	"github.com/msto63/livescribe/internal/stt"
	"github.com/msto63/livescribe/internal/transcriber"
	"github.com/msto63/livescribe/internal/transcript"
	coreerr "github.com/msto63/livescribe/pkg/core/errors"
	"github.com/msto63/livescribe/pkg/core/logging"
)

// Config holds the collaborators of a Service
type Config struct {
	// Devices creates the microphone handle per session (required)
	Devices audio.DeviceFactory

	// Backend performs inference (required)
	Backend stt.Backend

	// Model is loaded by LoadModel
	Model stt.ModelConfig

	// Permission is checked on every Start
	Permission audio.PermissionChecker

	// Sink persists raw audio when set
	Sink sink.Opener

	// Store persists results when set
	Store transcript.Store

	// Gate drops silent chunks when set
	Gate transcriber.SpeechGate

	// Listener receives every update and result
	Listener events.Listener

	// Metrics is optional
	Metrics *metrics.Metrics

	BufferBytes   int
	MaxDuration   time.Duration
	StopTimeout   time.Duration
	EngineTimeout time.Duration
}

// Service owns one recorder, one transcription coordinator and the
// optional transcript store
type Service struct {
	cfg      Config
	logger   *logging.Logger
	engine   *stt.Guard
	coord    *transcriber.Coordinator
	recorder *audio.Recorder
	store    transcript.Store

	closeOnce sync.Once
	closeErr  error
}

// New wires the pipeline and starts the transcription worker
func New(cfg Config) (*Service, error) {
	const op = "service.New"

	if cfg.Backend == nil {
		return nil, coreerr.New(coreerr.CodeInvalidConfig, op, "engine backend is required")
	}
	if cfg.Devices == nil {
		return nil, coreerr.New(coreerr.CodeInvalidConfig, op, "device factory is required")
	}

	s := &Service{
		cfg:    cfg,
		logger: logging.New("service"),
		store:  cfg.Store,
	}

	listeners := events.Multi{cfg.Listener}
	if cfg.Store != nil {
		listeners = append(listeners, &storeListener{store: cfg.Store, logger: s.logger})
	}

	s.engine = stt.NewGuard(cfg.Backend, stt.GuardConfig{
		Listener: listeners,
		Metrics:  cfg.Metrics,
		Timeout:  cfg.EngineTimeout,
	})

	opts := []transcriber.Option{transcriber.WithMetrics(cfg.Metrics)}
	if cfg.Gate != nil {
		opts = append(opts, transcriber.WithSpeechGate(cfg.Gate))
	}
	s.coord = transcriber.New(s.engine, listeners, opts...)

	recorder, err := audio.NewRecorder(audio.RecorderConfig{
		Devices:     cfg.Devices,
		Output:      s.coord,
		Permission:  cfg.Permission,
		Sink:        cfg.Sink,
		Listener:    listeners,
		Metrics:     cfg.Metrics,
		BufferBytes: cfg.BufferBytes,
		MaxDuration: cfg.MaxDuration,
		StopTimeout: cfg.StopTimeout,
	})
	if err != nil {
		s.coord.Close(context.Background())
		return nil, err
	}
	s.recorder = recorder

	return s, nil
}

// Start begins a recording session. While recording, the active session is
// returned.
func (s *Service) Start(ctx context.Context) (*audio.Session, error) {
	if s.recorder.IsRecording() {
		s.logger.Info("Recording already in progress")
	}
	return s.recorder.Start(ctx)
}

// Stop ends the active session
func (s *Service) Stop() error {
	return s.recorder.Stop()
}

// IsRecording reports whether a session is active
func (s *Service) IsRecording() bool {
	return s.recorder.IsRecording()
}

// Session returns the active session or nil
func (s *Service) Session() *audio.Session {
	return s.recorder.Session()
}

// OnStateChange registers a recorder lifecycle listener
func (s *Service) OnStateChange(l audio.StateChangeListener) {
	s.recorder.OnStateChange(l)
}

// LoadModel initializes the engine with the configured model
func (s *Service) LoadModel(ctx context.Context) error {
	return s.coord.LoadModel(ctx, s.cfg.Model)
}

// UnloadModel deinitializes the engine
func (s *Service) UnloadModel() {
	s.coord.UnloadModel()
}

// IsModelLoaded reports whether the engine is ready
func (s *Service) IsModelLoaded() bool {
	return s.coord.IsModelLoaded()
}

// Pending returns the number of chunks waiting for transcription
func (s *Service) Pending() int {
	return s.coord.Pending()
}

// TranscribeFile transcribes a WAV file and stores the text under a
// session named after the file
func (s *Service) TranscribeFile(ctx context.Context, path string) (string, error) {
	text, err := s.coord.TranscribeFile(ctx, path)
	if err != nil {
		return "", err
	}

	if s.store != nil && text != "" {
		seg := transcript.Segment{
			SessionID: fileSessionID(path),
			Seq:       1,
			Text:      text,
			Source:    events.SourceFile,
			CreatedAt: time.Now(),
		}
		if err := s.store.Append(ctx, seg); err != nil {
			s.logger.Warn("Failed to store transcript", "path", path, "error", err)
		}
	}
	return text, nil
}

// Segments returns the stored transcript of a session
func (s *Service) Segments(ctx context.Context, sessionID string) ([]transcript.Segment, error) {
	if s.store == nil {
		return nil, coreerr.New(coreerr.CodeInvalidState, "service.Segments", "no transcript store configured")
	}
	return s.store.Segments(ctx, sessionID)
}

// Close stops recording, drains the transcription worker, unloads the
// model and closes the store
func (s *Service) Close(ctx context.Context) error {
	s.closeOnce.Do(func() {
		var errs []error
		if err := s.recorder.Stop(); err != nil {
			errs = append(errs, err)
		}
		if err := s.coord.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		s.coord.UnloadModel()
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		s.closeErr = errors.Join(errs...)
		s.logger.Info("Service closed")
	})
	return s.closeErr
}

// fileSessionID derives a session name from a file path
func fileSessionID(path string) string {
	base := filepath.Base(path)
	return "file-" + strings.TrimSuffix(base, filepath.Ext(base))
}

// storeListener appends live results to the transcript store
type storeListener struct {
	store  transcript.Store
	logger *logging.Logger
}

func (l *storeListener) OnUpdate(events.Update) {}

func (l *storeListener) OnResult(r events.Result) {
	if r.SessionID == "" {
		return
	}
	seg := transcript.Segment{
		SessionID: r.SessionID,
		Seq:       r.Seq,
		Text:      r.Text,
		Source:    r.Source,
		CreatedAt: r.Time,
	}
	if err := l.store.Append(context.Background(), seg); err != nil {
		l.logger.Warn("Failed to store transcript", "session", r.SessionID, "error", err)
	}
}
