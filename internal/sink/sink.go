// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     sink
// Description: Audio file sinks that persist raw PCM while recording
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package sink

// Sink accepts raw little-endian 16-bit PCM in capture order.
// Close finalizes the container and is safe without any Write.
type Sink interface {
	Write(pcm []byte) error
	Close() error
	Path() string
}

// Opener creates one sink per recording session
type Opener interface {
	Open(sessionID string) (Sink, error)
}

// OpenerFunc adapts a function to an Opener
type OpenerFunc func(sessionID string) (Sink, error)

// Open implements Opener
func (f OpenerFunc) Open(sessionID string) (Sink, error) {
	return f(sessionID)
}
