// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     stt
// Description: Whisper backend using an OpenAI-compatible transcription server
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/msto63/livescribe/pkg/core/logging"
)

// WhisperHTTP talks to a whisper.cpp server (or any server speaking the
// /v1/audio/transcriptions API)
type WhisperHTTP struct {
	baseURL string
	client  *http.Client
	logger  *logging.Logger

	mu     sync.Mutex
	model  ModelConfig
	loaded bool
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// NewWhisperHTTP creates the backend for the server at baseURL
func NewWhisperHTTP(baseURL string, timeout time.Duration) *WhisperHTTP {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &WhisperHTTP{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logging.New("stt-whisper-http"),
	}
}

// Name implements Backend
func (w *WhisperHTTP) Name() string {
	return "whisper-http"
}

// Load checks that the server is reachable. The model itself is loaded by
// the server; ModelPath is only informational here.
func (w *WhisperHTTP) Load(ctx context.Context, cfg ModelConfig) error {
	if w.baseURL == "" {
		return errors.New("server url is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	w.mu.Lock()
	w.model = cfg
	w.loaded = true
	w.mu.Unlock()

	w.logger.Debug("Whisper server reachable", "url", w.baseURL, "status", resp.StatusCode)
	return nil
}

// Unload drops idle connections
func (w *WhisperHTTP) Unload() error {
	w.mu.Lock()
	w.loaded = false
	w.mu.Unlock()
	w.client.CloseIdleConnections()
	return nil
}

// TranscribeSamples encodes samples as WAV and posts them
func (w *WhisperHTTP) TranscribeSamples(ctx context.Context, samples []float32) (string, error) {
	var mf memFile
	if err := EncodeWAV(&mf, samples); err != nil {
		return "", fmt.Errorf("failed to encode WAV: %w", err)
	}
	return w.post(ctx, "audio.wav", mf.Bytes())
}

// TranscribeFile posts the file as is
func (w *WhisperHTTP) TranscribeFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read audio file: %w", err)
	}
	return w.post(ctx, filepath.Base(path), data)
}

func (w *WhisperHTTP) post(ctx context.Context, filename string, wavData []byte) (string, error) {
	w.mu.Lock()
	model := w.model
	loaded := w.loaded
	w.mu.Unlock()
	if !loaded {
		return "", errors.New("model not loaded")
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}
	if lang := model.EffectiveLanguage(); lang != "auto" {
		if err := writer.WriteField("language", lang); err != nil {
			return "", fmt.Errorf("failed to write language field: %w", err)
		}
	}
	if err := writer.WriteField("response_format", "json"); err != nil {
		return "", fmt.Errorf("failed to write response_format field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	url := w.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var out transcriptionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	w.logger.Debug("Transcription complete", "duration", time.Since(start), "text_length", len(out.Text))
	return strings.TrimSpace(out.Text), nil
}
