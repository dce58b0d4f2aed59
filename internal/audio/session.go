// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     audio
// Description: Recording session handle
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package audio

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// StopReason tells why a session ended
type StopReason int

const (
	StopRequested StopReason = iota
	StopDeviceError
	StopMaxDuration
)

// String returns the string representation of the reason
func (r StopReason) String() string {
	switch r {
	case StopRequested:
		return "requested"
	case StopDeviceError:
		return "device_error"
	case StopMaxDuration:
		return "max_duration"
	default:
		return "unknown"
	}
}

// Session is one start-to-stop recording cycle
type Session struct {
	ID          string
	StartedAt   time.Time
	MaxDuration time.Duration

	// SinkPath is the audio file of the session, empty without persistence
	SinkPath string

	stopFlag  atomic.Bool
	announced chan struct{}
	done      chan struct{}
	once      sync.Once
	chunks    atomic.Uint64

	// set before done is closed
	reason    StopReason
	err       error
	stoppedAt time.Time
}

func newSession(maxDuration time.Duration) *Session {
	return &Session{
		ID:          uuid.NewString(),
		StartedAt:   time.Now(),
		MaxDuration: maxDuration,
		announced:   make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// wasAnnounced reports whether Start has sent the session's start updates
func (s *Session) wasAnnounced() bool {
	select {
	case <-s.announced:
		return true
	default:
		return false
	}
}

// requestStop sets the stop flag; returns false if it was already set
func (s *Session) requestStop() bool {
	return s.stopFlag.CompareAndSwap(false, true)
}

func (s *Session) stopRequested() bool {
	return s.stopFlag.Load()
}

// finish records the outcome and closes Done. Only the first call counts.
func (s *Session) finish(reason StopReason, err error) bool {
	first := false
	s.once.Do(func() {
		s.reason = reason
		s.err = err
		s.stoppedAt = time.Now()
		close(s.done)
		first = true
	})
	return first
}

// Done is closed once the capture goroutine has released the device
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Active reports whether the capture goroutine is still running
func (s *Session) Active() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Reason returns why the session ended. Valid after Done is closed.
func (s *Session) Reason() StopReason {
	<-s.done
	return s.reason
}

// Err returns the device error that ended the session, if any. Valid
// after Done is closed.
func (s *Session) Err() error {
	<-s.done
	return s.err
}

// Chunks returns the number of chunks captured so far
func (s *Session) Chunks() uint64 {
	return s.chunks.Load()
}

// Duration returns the elapsed recording time
func (s *Session) Duration() time.Duration {
	select {
	case <-s.done:
		return s.stoppedAt.Sub(s.StartedAt)
	default:
		return time.Since(s.StartedAt)
	}
}
