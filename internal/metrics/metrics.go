// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     metrics
// Description: Prometheus metrics for the capture and transcription pipeline
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons
const (
	DropNotReady = "not_ready"
	DropSilence  = "silence"
)

// Metrics contains all Prometheus metrics of the pipeline. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Capture
	ChunksCaptured    prometheus.Counter
	RecordingSessions prometheus.Counter
	RecordingActive   prometheus.Gauge
	SinkFailures      prometheus.Counter
	DeviceErrors      prometheus.Counter

	// Hand-off queue
	QueueDepth prometheus.Gauge

	// Transcription
	ChunksDropped         *prometheus.CounterVec
	Transcriptions        *prometheus.CounterVec
	EngineFailures        prometheus.Counter
	TranscriptionDuration prometheus.Histogram
}

// New creates all metrics and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		ChunksCaptured: f.NewCounter(prometheus.CounterOpts{
			Name: "livescribe_chunks_captured_total",
			Help: "Total number of audio chunks read from the microphone",
		}),
		RecordingSessions: f.NewCounter(prometheus.CounterOpts{
			Name: "livescribe_recording_sessions_total",
			Help: "Total number of recording sessions started",
		}),
		RecordingActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "livescribe_recording_active",
			Help: "1 while a recording session is active",
		}),
		SinkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "livescribe_sink_failures_total",
			Help: "Total number of audio file sink open, write or close failures",
		}),
		DeviceErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "livescribe_device_errors_total",
			Help: "Total number of sessions terminated by a device error",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "livescribe_queue_depth",
			Help: "Current number of chunks waiting for transcription",
		}),
		ChunksDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "livescribe_chunks_dropped_total",
			Help: "Total number of chunks discarded without transcription",
		}, []string{"reason"}),
		Transcriptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "livescribe_transcriptions_total",
			Help: "Total number of transcription results published",
		}, []string{"source"}),
		EngineFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "livescribe_engine_failures_total",
			Help: "Total number of contained engine errors and panics",
		}),
		TranscriptionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "livescribe_transcription_duration_seconds",
			Help:    "Time spent inside the engine per transcription call",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		}),
	}
}

// Handler serves the metrics gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// ChunkCaptured counts one chunk read from the device
func (m *Metrics) ChunkCaptured() {
	if m == nil {
		return
	}
	m.ChunksCaptured.Inc()
}

// SessionStarted marks a recording session as active
func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.RecordingSessions.Inc()
	m.RecordingActive.Set(1)
}

// SessionStopped marks the recording session as finished
func (m *Metrics) SessionStopped() {
	if m == nil {
		return
	}
	m.RecordingActive.Set(0)
}

// SinkFailed counts an audio file sink failure
func (m *Metrics) SinkFailed() {
	if m == nil {
		return
	}
	m.SinkFailures.Inc()
}

// DeviceFailed counts a session ended by a device error
func (m *Metrics) DeviceFailed() {
	if m == nil {
		return
	}
	m.DeviceErrors.Inc()
}

// SetQueueDepth records the current queue length
func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

// ChunkDropped counts a chunk discarded for reason
func (m *Metrics) ChunkDropped(reason string) {
	if m == nil {
		return
	}
	m.ChunksDropped.WithLabelValues(reason).Inc()
}

// Transcribed records one published result and the time spent in the engine
func (m *Metrics) Transcribed(source string, took time.Duration) {
	if m == nil {
		return
	}
	m.Transcriptions.WithLabelValues(source).Inc()
	m.TranscriptionDuration.Observe(took.Seconds())
}

// EngineFailed counts a contained engine failure
func (m *Metrics) EngineFailed() {
	if m == nil {
		return
	}
	m.EngineFailures.Inc()
}
