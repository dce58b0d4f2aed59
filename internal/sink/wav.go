// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     sink
// Description: WAV file sink using go-audio/wav
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package sink

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	coreerr "github.com/msto63/livescribe/pkg/core/errors"
)

const (
	// DefaultSampleRate matches the capture format
	DefaultSampleRate = 16000

	// DefaultChannels is mono audio
	DefaultChannels = 1

	bitDepth      = 16
	pcmFormatCode = 1
)

// WAVOpener creates WAV files in Dir named after the session
type WAVOpener struct {
	Dir        string
	SampleRate int
	Channels   int
}

// NewWAVOpener creates an opener for 16 kHz mono files in dir
func NewWAVOpener(dir string) *WAVOpener {
	return &WAVOpener{
		Dir:        dir,
		SampleRate: DefaultSampleRate,
		Channels:   DefaultChannels,
	}
}

// Open implements Opener
func (o *WAVOpener) Open(sessionID string) (Sink, error) {
	const op = "sink.Open"

	if err := os.MkdirAll(o.Dir, 0755); err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOError, op, "failed to create output directory")
	}

	name := fmt.Sprintf("%s_%s.wav", time.Now().Format("20060102-150405"), sessionID)
	path := filepath.Join(o.Dir, name)

	return CreateWAV(path, o.SampleRate, o.Channels)
}

// WAVSink streams PCM into a WAV file
type WAVSink struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	enc      *wav.Encoder
	format   *audio.Format
	carry    []byte
	written  int64
	closed   bool
	closeErr error
}

// CreateWAV creates the file and writes the container header
func CreateWAV(path string, sampleRate, channels int) (*WAVSink, error) {
	const op = "sink.CreateWAV"

	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, coreerr.Wrap(err, coreerr.CodeIOError, op, "failed to create wav file")
	}

	s := &WAVSink{
		path: path,
		file: f,
		enc:  wav.NewEncoder(f, sampleRate, bitDepth, channels, pcmFormatCode),
		format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
	}

	// An empty buffer forces the header and data chunk so that Close
	// without any Write still leaves a valid, empty file.
	if err := s.enc.Write(s.buffer(nil)); err != nil {
		f.Close()
		os.Remove(path)
		return nil, coreerr.Wrap(err, coreerr.CodeIOError, op, "failed to write wav header")
	}

	return s, nil
}

// Path returns the file path
func (s *WAVSink) Path() string {
	return s.path
}

// Written returns the number of PCM bytes accepted so far
func (s *WAVSink) Written() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.written
}

// Write appends PCM bytes. A trailing odd byte is held until the next call.
func (s *WAVSink) Write(pcm []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return coreerr.New(coreerr.CodeIOError, "sink.Write", "sink is closed")
	}

	data := pcm
	if len(s.carry) > 0 {
		data = append(s.carry, pcm...)
		s.carry = nil
	}
	if len(data)%2 == 1 {
		s.carry = []byte{data[len(data)-1]}
		data = data[:len(data)-1]
	}

	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(data[2*i:])))
	}

	if err := s.enc.Write(s.buffer(samples)); err != nil {
		return coreerr.Wrap(err, coreerr.CodeIOError, "sink.Write", "failed to write samples")
	}
	s.written += int64(len(pcm))
	return nil
}

// Close finalizes the header and closes the file. Repeated calls return
// the result of the first.
func (s *WAVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.closeErr
	}
	s.closed = true

	encErr := s.enc.Close()
	fileErr := s.file.Close()

	switch {
	case encErr != nil:
		s.closeErr = coreerr.Wrap(encErr, coreerr.CodeIOError, "sink.Close", "failed to finalize wav file")
	case fileErr != nil:
		s.closeErr = coreerr.Wrap(fileErr, coreerr.CodeIOError, "sink.Close", "failed to close wav file")
	}
	return s.closeErr
}

func (s *WAVSink) buffer(data []int) *audio.IntBuffer {
	if data == nil {
		data = []int{}
	}
	return &audio.IntBuffer{
		Format:         s.format,
		Data:           data,
		SourceBitDepth: bitDepth,
	}
}
