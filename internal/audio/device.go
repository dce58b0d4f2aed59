// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     audio
// Description: Microphone device boundary
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package audio

// Format describes the PCM layout requested from a device
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// PCM16Mono is the only format used for capture
var PCM16Mono = Format{SampleRate: SampleRate, Channels: Channels, BitDepth: BitDepth}

// BytesPerFrame returns the size of one sample frame
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitDepth / 8
}

// Device is a synchronous microphone handle. One handle serves exactly one
// recording session.
type Device interface {
	// MinBufferSize returns the smallest read size in bytes the device
	// supports for f, or a value <= 0 when unknown.
	MinBufferSize(f Format) int

	// Open prepares the device for f with reads of bufferBytes.
	Open(f Format, bufferBytes int) error

	// StartRecording starts delivering audio to Read.
	StartRecording() error

	// Read blocks until buf is filled or the device is stopped. It returns
	// the number of bytes read; zero or an error ends the session.
	Read(buf []byte) (int, error)

	// Stop stops delivery and unblocks a pending Read. Safe to call more
	// than once.
	Stop() error

	// Release frees the native handle.
	Release() error
}

// DeviceFactory creates a fresh device handle for a session
type DeviceFactory func() (Device, error)
