// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     transcriber
// Description: Transcription worker consuming captured chunks
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package transcriber

import (
	"context"
	"os"
	"runtime/pprof"
	"sync"
	"time"

	"github.com/msto63/livescribe/internal/audio"
	"github.com/msto63/livescribe/internal/events"
	"github.com/msto63/livescribe/internal/metrics"
	"github.com/msto63/livescribe/internal/queue"
	"github.com/msto63/livescribe/internal/stt"
	coreerr "github.com/msto63/livescribe/pkg/core/errors"
	"github.com/msto63/livescribe/pkg/core/logging"
)

// SpeechGate decides whether a chunk is worth transcribing
type SpeechGate interface {
	IsSpeech(samples []float32) bool
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithMetrics records queue depth, drops and transcription timings
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithSpeechGate drops chunks the gate classifies as silence
func WithSpeechGate(g SpeechGate) Option {
	return func(c *Coordinator) {
		c.gate = g
	}
}

// Coordinator owns the transcription worker. Chunks written with
// WriteBuffer are transcribed one at a time, in order, and every result is
// published to the listener.
type Coordinator struct {
	engine   stt.Engine
	listener events.Listener
	metrics  *metrics.Metrics
	gate     SpeechGate
	logger   *logging.Logger

	queue *queue.Queue[audio.Chunk]

	// engineMu serializes engine access between the worker, file
	// transcription and unload
	engineMu sync.Mutex

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New creates the coordinator and starts its worker
func New(engine stt.Engine, listener events.Listener, opts ...Option) *Coordinator {
	if listener == nil {
		listener = events.Nop{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Coordinator{
		engine:   engine,
		listener: listener,
		logger:   logging.New("transcriber"),
		queue:    queue.New[audio.Chunk](),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}

	go pprof.Do(ctx, pprof.Labels("worker", "transcriber"), c.run)
	return c
}

// LoadModel initializes the engine. Chunks arriving while the model loads
// are dropped by the worker.
func (c *Coordinator) LoadModel(ctx context.Context, cfg stt.ModelConfig) error {
	if err := c.engine.Initialize(ctx, cfg); err != nil {
		c.logger.Error("Error initializing model", "model", cfg.ModelPath, "error", err)
		c.listener.OnUpdate(events.NewUpdate(events.KindModelLoadFailed, "", events.MsgModelInitFailed, err))
		return err
	}
	c.listener.OnUpdate(events.NewUpdate(events.KindModelLoaded, "", events.MsgModelLoaded, nil))
	return nil
}

// UnloadModel waits for an in-flight transcription and deinitializes the
// engine
func (c *Coordinator) UnloadModel() {
	c.engineMu.Lock()
	wasReady := c.engine.IsInitialized()
	c.engine.Deinitialize()
	c.engineMu.Unlock()

	if wasReady {
		c.listener.OnUpdate(events.NewUpdate(events.KindModelUnloaded, "", events.MsgModelUnloaded, nil))
	}
}

// IsModelLoaded reports whether the engine is ready
func (c *Coordinator) IsModelLoaded() bool {
	return c.engine.IsInitialized()
}

// WriteBuffer hands a chunk to the worker. It never blocks.
func (c *Coordinator) WriteBuffer(chunk audio.Chunk) {
	if !c.queue.Push(chunk) {
		c.logger.Debug("Chunk dropped, coordinator closed", "session", chunk.SessionID, "seq", chunk.Seq)
		return
	}
	c.metrics.SetQueueDepth(c.queue.Len())
}

// Pending returns the number of queued chunks
func (c *Coordinator) Pending() int {
	return c.queue.Len()
}

// TranscribeFile transcribes a WAV file on the caller's goroutine and
// publishes the result. Without a loaded model it returns an empty text.
func (c *Coordinator) TranscribeFile(ctx context.Context, path string) (string, error) {
	const op = "transcriber.TranscribeFile"

	if _, err := os.Stat(path); err != nil {
		c.listener.OnUpdate(events.NewUpdate(events.KindFileNotFound, "", events.MsgFileNotFound, err))
		return "", coreerr.Wrap(err, coreerr.CodeNotFound, op, "input file does not exist")
	}

	c.engineMu.Lock()
	if !c.engine.IsInitialized() {
		c.engineMu.Unlock()
		c.logger.Debug("File skipped, model not loaded", "path", path)
		return "", nil
	}
	c.listener.OnUpdate(events.NewUpdate(events.KindProcessingStarted, "", events.MsgProcessing, nil))
	start := time.Now()
	text := c.engine.TranscribeFile(ctx, path)
	c.engineMu.Unlock()

	took := time.Since(start)
	c.metrics.Transcribed(events.SourceFile, took)
	c.listener.OnUpdate(events.NewUpdate(events.KindProcessingDone, "", events.MsgProcessingDone, nil))
	c.listener.OnResult(events.Result{
		Text:   text,
		Source: events.SourceFile,
		Time:   time.Now(),
	})

	c.logger.Info("File transcribed", "path", path, "took", took.String(), "chars", len(text))
	return text, nil
}

// Close stops accepting chunks and waits for the worker to finish the
// queued ones. When ctx expires first, the remaining chunks are abandoned.
func (c *Coordinator) Close(ctx context.Context) error {
	c.closeOnce.Do(c.queue.Close)

	select {
	case <-c.done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		dropped := c.queue.Clear()
		c.logger.Warn("Coordinator shutdown timed out", "dropped", dropped)
		return ctx.Err()
	}
}

// run is the worker loop
func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)
	c.logger.Debug("Transcription worker started")

	for {
		chunk, ok := c.queue.Pop(ctx)
		if !ok {
			c.logger.Debug("Transcription worker stopped")
			return
		}
		c.metrics.SetQueueDepth(c.queue.Len())
		c.process(ctx, chunk)
	}
}

func (c *Coordinator) process(ctx context.Context, chunk audio.Chunk) {
	if !c.engine.IsInitialized() {
		c.metrics.ChunkDropped(metrics.DropNotReady)
		return
	}
	if c.gate != nil && !c.gate.IsSpeech(chunk.Samples) {
		c.logger.Debug("Silent chunk skipped", "session", chunk.SessionID, "seq", chunk.Seq)
		c.metrics.ChunkDropped(metrics.DropSilence)
		return
	}

	c.engineMu.Lock()
	// the model may have been unloaded while waiting for the lock
	if !c.engine.IsInitialized() {
		c.engineMu.Unlock()
		c.metrics.ChunkDropped(metrics.DropNotReady)
		return
	}
	start := time.Now()
	text := c.engine.TranscribeBuffer(ctx, chunk.Samples)
	c.engineMu.Unlock()

	c.metrics.Transcribed(events.SourceLive, time.Since(start))
	c.listener.OnResult(events.Result{
		SessionID: chunk.SessionID,
		Seq:       chunk.Seq,
		Text:      text,
		Source:    events.SourceLive,
		Time:      time.Now(),
	})
}
