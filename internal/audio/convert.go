// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     audio
// Description: PCM sample conversion
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package audio

import (
	"encoding/binary"
	"math"
)

// Convert maps little-endian signed 16-bit PCM to samples in [-1.0, 1.0).
// A trailing odd byte is ignored.
func Convert(raw []byte) []float32 {
	n := len(raw) / 2
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		out[i] = float32(s) / 32768.0
	}
	return out
}

// ToPCM16 converts normalized samples back to little-endian 16-bit PCM.
// Values outside [-1.0, 1.0] are clamped.
func ToPCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32768.0)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
	}
	return out
}
