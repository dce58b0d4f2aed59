// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     vad
// Description: WebRTC voice activity gate for captured chunks
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package vad

import (
	"fmt"
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"

	"github.com/msto63/livescribe/internal/audio"
	"github.com/msto63/livescribe/pkg/core/logging"
)

// Config holds VAD configuration
type Config struct {
	// SampleRate is the audio sample rate (8000, 16000, 32000 or 48000)
	SampleRate int

	// Mode is the aggressiveness (0-3, higher = more aggressive filtering)
	Mode int

	// MinSpeechFrames is how many 10ms frames must contain speech
	MinSpeechFrames int
}

// DefaultConfig returns default VAD configuration
func DefaultConfig() Config {
	return Config{
		SampleRate:      audio.SampleRate,
		Mode:            2, // Moderate aggressiveness
		MinSpeechFrames: 3,
	}
}

// WebRTC classifies chunks with WebRTC's VAD
type WebRTC struct {
	mu     sync.Mutex
	vad    *webrtcvad.VAD
	cfg    Config
	logger *logging.Logger
}

// NewWebRTC creates the gate. Modes outside 0-3 are clamped.
func NewWebRTC(cfg Config) (*WebRTC, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create WebRTC VAD: %w", err)
	}

	if cfg.Mode < 0 {
		cfg.Mode = 0
	}
	if cfg.Mode > 3 {
		cfg.Mode = 3
	}
	if err := v.SetMode(cfg.Mode); err != nil {
		return nil, fmt.Errorf("failed to set VAD mode: %w", err)
	}

	switch cfg.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return nil, fmt.Errorf("invalid sample rate %d, must be one of [8000 16000 32000 48000]", cfg.SampleRate)
	}
	if cfg.MinSpeechFrames < 1 {
		cfg.MinSpeechFrames = 1
	}

	return &WebRTC{
		vad:    v,
		cfg:    cfg,
		logger: logging.New("vad"),
	}, nil
}

// Mode returns the aggressiveness mode
func (w *WebRTC) Mode() int {
	return w.cfg.Mode
}

// SpeechFrames returns the number of 10ms frames classified as speech
func (w *WebRTC) SpeechFrames(samples []float32) (int, error) {
	frameBytes := w.cfg.SampleRate / 100 * 2
	pcm := audio.ToPCM16(samples)
	if len(pcm) < frameBytes {
		padded := make([]byte, frameBytes)
		copy(padded, pcm)
		pcm = padded
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	n := 0
	for i := 0; i+frameBytes <= len(pcm); i += frameBytes {
		active, err := w.vad.Process(w.cfg.SampleRate, pcm[i:i+frameBytes])
		if err != nil {
			return n, fmt.Errorf("VAD processing failed: %w", err)
		}
		if active {
			n++
		}
	}
	return n, nil
}

// IsSpeech reports whether samples contain enough speech. A VAD failure
// lets the chunk through.
func (w *WebRTC) IsSpeech(samples []float32) bool {
	n, err := w.SpeechFrames(samples)
	if err != nil {
		w.logger.Warn("VAD failed, passing chunk through", "error", err)
		return true
	}
	return n >= w.cfg.MinSpeechFrames
}
