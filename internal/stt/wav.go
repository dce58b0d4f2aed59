// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     stt
// Description: WAV encoding of sample buffers for file-based backends
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package stt

import (
	"errors"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	// SampleRate expected by all backends (16kHz for Whisper)
	SampleRate = 16000

	bitDepth = 16
)

// EncodeWAV writes samples as 16-bit mono PCM WAV
func EncodeWAV(w io.WriteSeeker, samples []float32) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32768.0)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		data[i] = int(v)
	}

	enc := wav.NewEncoder(w, SampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  SampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// WriteWAV writes samples to a WAV file at path
func WriteWAV(path string, samples []float32) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeWAV(f, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadWAV decodes a 16-bit PCM WAV file into normalized mono samples.
// Multi-channel files are reduced to their first channel.
func ReadWAV(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return nil, 0, errors.New("not a valid wav file")
	}
	if d.BitDepth != bitDepth {
		return nil, 0, errors.New("only 16-bit PCM is supported")
	}

	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}

	channels := int(d.NumChans)
	if channels < 1 {
		channels = 1
	}
	samples := make([]float32, len(buf.Data)/channels)
	for i := range samples {
		samples[i] = float32(buf.Data[i*channels]) / 32768.0
	}
	return samples, int(d.SampleRate), nil
}

// memFile is an in-memory io.WriteSeeker for encoding request bodies
type memFile struct {
	buf []byte
	pos int
}

func (m *memFile) Write(p []byte) (int, error) {
	if end := m.pos + len(p); end > len(m.buf) {
		m.buf = append(m.buf, make([]byte, end-len(m.buf))...)
	}
	n := copy(m.buf[m.pos:], p)
	m.pos += n
	return n, nil
}

func (m *memFile) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(m.pos) + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("negative position")
	}
	m.pos = int(abs)
	return abs, nil
}

func (m *memFile) Bytes() []byte {
	return m.buf
}
