// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     transcript
// Description: Persistence of published transcription results
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package transcript

import (
	"context"
	"fmt"
	"time"
)

// Store kinds accepted by Open
const (
	KindNone   = "none"
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// Segment is one transcribed piece of a session
type Segment struct {
	SessionID string
	Seq       uint64
	Text      string
	Source    string
	CreatedAt time.Time
}

// Store appends segments to session transcripts
type Store interface {
	// Append stores a segment. Empty segments may be skipped.
	Append(ctx context.Context, seg Segment) error

	// Segments returns the stored segments of a session in append order
	Segments(ctx context.Context, sessionID string) ([]Segment, error)

	// Close releases the store
	Close() error
}

// Open creates the store of the given kind at path. KindNone returns nil.
func Open(kind, path string) (Store, error) {
	switch kind {
	case "", KindNone:
		return nil, nil
	case KindFile:
		s, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindSQLite:
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown transcript store: %s", kind)
	}
}
