package stt

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWAV_RoundTrip(t *testing.T) {
	in := make([]float32, 1600)
	for i := range in {
		in[i] = float32(0.5 * math.Sin(float64(i)/10))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := WriteWAV(path, in); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	out, rate, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if rate != SampleRate {
		t.Errorf("rate = %d, want %d", rate, SampleRate)
	}
	if len(out) != len(in) {
		t.Fatalf("len = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if d := math.Abs(float64(out[i] - in[i])); d > 1.0/32768 {
			t.Fatalf("sample %d = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestWAV_Clamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")
	if err := WriteWAV(path, []float32{2, -2}); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}
	out, _, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV() error = %v", err)
	}
	if out[0] != 32767.0/32768.0 || out[1] != -1 {
		t.Errorf("clamped = %v, want [%v -1]", out, 32767.0/32768.0)
	}
}

func TestReadWAV_Invalid(t *testing.T) {
	if _, _, err := ReadWAV(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("ReadWAV(missing) error = nil, want error")
	}
}

func TestMemFile(t *testing.T) {
	var m memFile
	m.Write([]byte("abcdef"))
	if _, err := m.Seek(2, 0); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	m.Write([]byte("XY"))
	if _, err := m.Seek(0, 2); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	m.Write([]byte("g"))
	if got := string(m.Bytes()); got != "abXYefg" {
		t.Errorf("Bytes() = %q, want abXYefg", got)
	}
	if _, err := m.Seek(-1, 0); err == nil {
		t.Error("Seek(-1) error = nil, want error")
	}
}
