// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     audio
// Description: Recorder owning the capture goroutine and session lifecycle
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package audio

import (
	"context"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/msto63/livescribe/internal/events"
	"github.com/msto63/livescribe/internal/metrics"
	"github.com/msto63/livescribe/internal/sink"
	coreerr "github.com/msto63/livescribe/pkg/core/errors"
	"github.com/msto63/livescribe/pkg/core/logging"
)

const (
	// DefaultBufferBytes is used when the device reports no minimum (100ms)
	DefaultBufferBytes = BytesPerSecond / 10

	// DefaultMaxDuration caps a session that is never stopped
	DefaultMaxDuration = 60 * time.Second

	// DefaultStopTimeout bounds how long Stop waits for the capture goroutine
	DefaultStopTimeout = 2 * time.Second
)

// RecorderConfig holds configuration for a Recorder
type RecorderConfig struct {
	// Devices creates a fresh device handle per session (required)
	Devices DeviceFactory

	// Output receives converted chunks (required)
	Output ChunkWriter

	// Permission is checked on every Start (default: AlwaysGranted)
	Permission PermissionChecker

	// Sink persists raw PCM when set
	Sink sink.Opener

	// Listener receives status updates
	Listener events.Listener

	// Metrics is optional
	Metrics *metrics.Metrics

	// BufferBytes overrides the read size when larger than the device minimum
	BufferBytes int

	// MaxDuration ends a session automatically; negative disables the cap
	MaxDuration time.Duration

	// StopTimeout bounds the join in Stop
	StopTimeout time.Duration
}

// Recorder captures microphone audio on a dedicated goroutine. At most one
// session is active at a time; the Recorder is reusable after a session ends.
type Recorder struct {
	cfg    RecorderConfig
	state  *StateMachine
	logger *logging.Logger

	mu      sync.Mutex
	session *Session
	device  Device
}

// NewRecorder creates a recorder
func NewRecorder(cfg RecorderConfig) (*Recorder, error) {
	if cfg.Devices == nil {
		return nil, coreerr.New(coreerr.CodeInvalidConfig, "audio.NewRecorder", "device factory is required")
	}
	if cfg.Output == nil {
		return nil, coreerr.New(coreerr.CodeInvalidConfig, "audio.NewRecorder", "chunk output is required")
	}
	if cfg.Permission == nil {
		cfg.Permission = AlwaysGranted{}
	}
	if cfg.Listener == nil {
		cfg.Listener = events.Nop{}
	}
	if cfg.MaxDuration == 0 {
		cfg.MaxDuration = DefaultMaxDuration
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}

	return &Recorder{
		cfg:    cfg,
		state:  NewStateMachine(),
		logger: logging.New("audio-recorder"),
	}, nil
}

// State returns the lifecycle state
func (r *Recorder) State() State {
	return r.state.Current()
}

// OnStateChange registers a listener for lifecycle transitions. Listeners
// run with the recorder lock held and must not call back into the Recorder.
func (r *Recorder) OnStateChange(l StateChangeListener) {
	r.state.AddListener(l)
}

// IsRecording returns whether a session is active
func (r *Recorder) IsRecording() bool {
	return r.state.Current() == StateRecording
}

// Session returns the current session or nil
func (r *Recorder) Session() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Start begins a recording session. While a session is active the existing
// session is returned without error. Permission and device-open failures
// are returned synchronously. Listener updates are sent after the recorder
// lock is released.
func (r *Recorder) Start(ctx context.Context) (*Session, error) {
	session, updates, err := r.start(ctx)
	if err != nil || updates == nil {
		return session, err
	}

	for _, u := range updates {
		r.cfg.Listener.OnUpdate(u)
	}
	close(session.announced)
	return session, nil
}

// start opens the device and launches the capture goroutine. updates is nil
// when an active session was returned.
func (r *Recorder) start(ctx context.Context) (*Session, []events.Update, error) {
	const op = "audio.Start"

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state.Current() {
	case StateRecording:
		r.logger.Debug("Recording already in progress", "session", r.session.ID)
		return r.session, nil, nil
	case StateStopping:
		return nil, nil, coreerr.New(coreerr.CodeInvalidState, op, "previous recording is still stopping")
	}

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	if !r.cfg.Permission.MicrophoneGranted() {
		return nil, nil, coreerr.New(coreerr.CodePermissionDenied, op, "microphone access not granted")
	}

	device, bufferBytes, err := r.openDevice()
	if err != nil {
		return nil, nil, err
	}

	session := newSession(r.cfg.MaxDuration)
	logger := r.logger.With("session", session.ID)
	updates := make([]events.Update, 0, 2)

	var out sink.Sink
	if r.cfg.Sink != nil {
		out, err = r.cfg.Sink.Open(session.ID)
		if err != nil {
			// Capture proceeds without persistence
			logger.Warn("Audio file sink unavailable", "error", err)
			r.cfg.Metrics.SinkFailed()
			updates = append(updates, events.NewUpdate(events.KindSinkFailed, session.ID, events.MsgSinkFailed, err))
			out = nil
		} else {
			session.SinkPath = out.Path()
		}
	}

	r.session = session
	r.device = device
	r.state.Transition(StateRecording)
	r.cfg.Metrics.SessionStarted()

	logger.Info("Recording started",
		"buffer_bytes", bufferBytes,
		"max_duration", r.cfg.MaxDuration.String(),
		"file", session.SinkPath)
	updates = append(updates, events.NewUpdate(events.KindRecordingStarted, session.ID, events.MsgRecordingStarted, nil))

	go r.captureLoop(session, device, out, bufferBytes)

	return session, updates, nil
}

// openDevice creates, opens and starts a device handle
func (r *Recorder) openDevice() (Device, int, error) {
	const op = "audio.Start"

	device, err := r.cfg.Devices()
	if err != nil {
		return nil, 0, coreerr.Wrap(err, coreerr.CodeDeviceError, op, "failed to create audio device")
	}

	bufferBytes := device.MinBufferSize(PCM16Mono)
	if bufferBytes <= 0 {
		r.logger.Debug("Device reported no minimum buffer size, using default", "buffer_bytes", DefaultBufferBytes)
		bufferBytes = DefaultBufferBytes
	}
	if r.cfg.BufferBytes > bufferBytes {
		bufferBytes = r.cfg.BufferBytes
	}
	bufferBytes &^= 1

	if err := device.Open(PCM16Mono, bufferBytes); err != nil {
		device.Release()
		return nil, 0, coreerr.Wrap(err, coreerr.CodeDeviceError, op, "failed to open audio device")
	}
	if err := device.StartRecording(); err != nil {
		device.Release()
		return nil, 0, coreerr.Wrap(err, coreerr.CodeDeviceError, op, "failed to start audio device")
	}
	return device, bufferBytes, nil
}

// Stop ends the active session. It waits up to StopTimeout for the capture
// goroutine; after that the goroutine is abandoned and finishes on its own.
// Without an active session Stop does nothing.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	session := r.session
	device := r.device
	if session == nil {
		r.mu.Unlock()
		return nil
	}
	if session.requestStop() {
		r.state.Transition(StateStopping)
	}
	r.mu.Unlock()

	// Unblock a pending read
	if session.Active() {
		if err := device.Stop(); err != nil {
			r.logger.Debug("Device stop failed", "session", session.ID, "error", err)
		}
	}

	// Called from a listener while Start is still notifying: the capture
	// goroutine holds its own notifications until Start returns.
	if !session.wasAnnounced() {
		r.logger.Debug("Stop requested during start notification", "session", session.ID)
		return nil
	}

	select {
	case <-session.Done():
	case <-time.After(r.cfg.StopTimeout):
		r.logger.Warn("Capture goroutine did not stop in time, abandoning it",
			"session", session.ID,
			"timeout", r.cfg.StopTimeout.String())
		r.detach(session)
	}
	return nil
}

// detach forgets session so a new one can start
func (r *Recorder) detach(session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != session {
		return
	}
	r.session = nil
	r.device = nil
	r.state.Transition(StateIdle)
}

func (r *Recorder) captureLoop(session *Session, device Device, out sink.Sink, bufferBytes int) {
	// The device read is a blocking native call
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	labels := pprof.Labels("worker", "capture", "session", session.ID)
	pprof.Do(context.Background(), labels, func(context.Context) {
		reason, err := r.capture(session, device, &out, bufferBytes)
		r.finish(session, device, out, reason, err)
	})
}

// capture reads until stop, device error or max duration
func (r *Recorder) capture(session *Session, device Device, out *sink.Sink, bufferBytes int) (StopReason, error) {
	logger := r.logger.With("session", session.ID)
	buf := make([]byte, bufferBytes)

	var seq uint64
	for {
		if session.stopRequested() {
			return StopRequested, nil
		}
		if session.MaxDuration > 0 && time.Since(session.StartedAt) >= session.MaxDuration {
			logger.Info("Maximum recording duration reached", "max_duration", session.MaxDuration.String())
			return StopMaxDuration, nil
		}

		n, err := device.Read(buf)
		if err != nil || n <= 0 {
			if session.stopRequested() {
				return StopRequested, nil
			}
			if err == nil {
				err = coreerr.Newf(coreerr.CodeDeviceError, "audio.Read", "device returned %d bytes", n)
			} else {
				err = coreerr.Wrap(err, coreerr.CodeDeviceError, "audio.Read", "device read failed")
			}
			return StopDeviceError, err
		}
		frame := buf[:n]

		if *out != nil {
			if err := (*out).Write(frame); err != nil {
				logger.Warn("Audio file write failed, continuing without persistence", "error", err)
				r.cfg.Metrics.SinkFailed()
				r.cfg.Listener.OnUpdate(events.NewUpdate(events.KindSinkFailed, session.ID, events.MsgSinkFailed, err))
				if cerr := (*out).Close(); cerr != nil {
					logger.Debug("Closing failed audio file", "error", cerr)
				}
				*out = nil
			}
		}

		r.cfg.Output.WriteBuffer(Chunk{
			SessionID:  session.ID,
			Seq:        seq,
			Samples:    Convert(frame),
			CapturedAt: time.Now(),
		})
		seq++
		session.chunks.Add(1)
		r.cfg.Metrics.ChunkCaptured()
	}
}

// finish runs once per session on the capture goroutine. Done is closed
// last, after the device is released and every notification was sent.
func (r *Recorder) finish(session *Session, device Device, out sink.Sink, reason StopReason, loopErr error) {
	logger := r.logger.With("session", session.ID)

	if err := device.Stop(); err != nil {
		logger.Debug("Device stop failed", "error", err)
	}
	if err := device.Release(); err != nil {
		logger.Warn("Device release failed", "error", err)
	}

	var closeErr error
	if out != nil {
		if closeErr = out.Close(); closeErr != nil {
			logger.Warn("Closing audio file failed", "path", out.Path(), "error", closeErr)
			r.cfg.Metrics.SinkFailed()
		}
	}

	r.detach(session)
	r.cfg.Metrics.SessionStopped()

	// Keep RecordingStarted ahead of every later update
	<-session.announced

	if closeErr != nil {
		r.cfg.Listener.OnUpdate(events.NewUpdate(events.KindSinkFailed, session.ID, events.MsgSinkFailed, closeErr))
	}

	if loopErr != nil {
		logger.Error("Recording ended by device error", "error", loopErr)
		r.cfg.Metrics.DeviceFailed()
		r.cfg.Listener.OnUpdate(events.NewUpdate(events.KindDeviceError, session.ID, events.MsgDeviceError, loopErr))
	}

	logger.Info("Recording stopped",
		"reason", reason.String(),
		"chunks", session.Chunks(),
		"duration", time.Since(session.StartedAt).String())
	r.cfg.Listener.OnUpdate(events.NewUpdate(events.KindRecordingStopped, session.ID, events.MsgRecordingStopped, loopErr))

	session.finish(reason, loopErr)
}
