// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     audio
// Description: Audio chunk handed from capture to transcription
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package audio

import "time"

const (
	// SampleRate is the fixed capture rate (16kHz for Whisper)
	SampleRate = 16000

	// Channels is mono audio
	Channels = 1

	// BitDepth is signed 16-bit PCM
	BitDepth = 16

	// BytesPerSecond of the capture format
	BytesPerSecond = SampleRate * Channels * BitDepth / 8
)

// Chunk is one converted device read. It is not modified after creation
// and has a single owner at a time.
type Chunk struct {
	SessionID  string
	Seq        uint64
	Samples    []float32
	CapturedAt time.Time
}

// Duration returns the audio length of the chunk
func (c Chunk) Duration() time.Duration {
	return time.Duration(len(c.Samples)) * time.Second / SampleRate
}

// ChunkWriter receives chunks from the capture goroutine. WriteBuffer must
// not block.
type ChunkWriter interface {
	WriteBuffer(Chunk)
}

// ChunkWriterFunc adapts a function to a ChunkWriter
type ChunkWriterFunc func(Chunk)

// WriteBuffer implements ChunkWriter
func (f ChunkWriterFunc) WriteBuffer(c Chunk) {
	f(c)
}
