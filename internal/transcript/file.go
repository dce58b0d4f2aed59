// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     transcript
// Description: Plain text transcript files, one per session
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package transcript

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

const lineTimeFormat = time.RFC3339

// FileStore writes <dir>/<session-id>.txt with one line per segment:
// "<timestamp>\t<seq>\t<source>\t<text>"
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates the store directory
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the transcript file of a session
func (s *FileStore) Path(sessionID string) string {
	return filepath.Join(s.dir, filepath.Base(sessionID)+".txt")
}

// Append implements Store. Empty text is skipped.
func (s *FileStore) Append(ctx context.Context, seg Segment) error {
	text := strings.TrimSpace(seg.Text)
	if text == "" {
		return nil
	}
	if seg.SessionID == "" {
		return fmt.Errorf("segment has no session")
	}
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.Path(seg.SessionID), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	text = strings.ReplaceAll(text, "\n", " ")
	line := fmt.Sprintf("%s\t%d\t%s\t%s\n", seg.CreatedAt.Format(lineTimeFormat), seg.Seq, seg.Source, text)
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// Segments implements Store
func (s *FileStore) Segments(ctx context.Context, sessionID string) ([]Segment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path(sessionID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	var segs []Segment
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "\t", 4)
		if len(parts) != 4 {
			continue
		}
		created, _ := time.Parse(lineTimeFormat, parts[0])
		seq, _ := strconv.ParseUint(parts[1], 10, 64)
		segs = append(segs, Segment{
			SessionID: sessionID,
			Seq:       seq,
			Source:    parts[2],
			Text:      parts[3],
			CreatedAt: created,
		})
	}
	return segs, scanner.Err()
}

// Close implements Store
func (s *FileStore) Close() error {
	return nil
}
