// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     transcript
// Description: SQLite-backed transcript store
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore keeps sessions and segments in a SQLite database
type SQLiteStore struct {
	db *sql.DB
}

// SessionInfo summarizes a stored session
type SessionInfo struct {
	ID        string
	StartedAt time.Time
	Segments  int
}

// NewSQLiteStore opens (or creates) the database at path
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// WAL mode so readers do not block the appending worker
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// initSchema creates the necessary tables
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		started_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS segments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		source TEXT NOT NULL,
		text TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_segments_session ON segments(session_id, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append implements Store. Empty text is skipped.
func (s *SQLiteStore) Append(ctx context.Context, seg Segment) error {
	text := strings.TrimSpace(seg.Text)
	if text == "" {
		return nil
	}
	if seg.CreatedAt.IsZero() {
		seg.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO sessions (id, started_at) VALUES (?, ?)`,
		seg.SessionID, seg.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO segments (session_id, seq, source, text, created_at) VALUES (?, ?, ?, ?, ?)`,
		seg.SessionID, int64(seg.Seq), seg.Source, text, seg.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("failed to insert segment: %w", err)
	}
	return tx.Commit()
}

// Segments implements Store
func (s *SQLiteStore) Segments(ctx context.Context, sessionID string) ([]Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, source, text, created_at FROM segments WHERE session_id = ? ORDER BY id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segs []Segment
	for rows.Next() {
		seg := Segment{SessionID: sessionID}
		var seq int64
		if err := rows.Scan(&seq, &seg.Source, &seg.Text, &seg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		seg.Seq = uint64(seq)
		segs = append(segs, seg)
	}
	return segs, rows.Err()
}

// Sessions lists stored sessions, newest first
func (s *SQLiteStore) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.started_at, COUNT(g.id)
		FROM sessions s LEFT JOIN segments g ON g.session_id = s.id
		GROUP BY s.id
		ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.StartedAt, &info.Segments); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// DeleteSession removes a session and its segments
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

// Close implements Store
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
