// ============================================================================
// meinDENKWERK (mDW) - Livescribe
// ============================================================================
//
// Package:     audio
// Description: Microphone device backed by PortAudio
// Author:      Mike Stoffels
// Created:     2026-10-19
// License:     MIT
// ============================================================================

package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"github.com/msto63/livescribe/pkg/core/logging"
)

// defaultBufferMillis is used when the device reports no latency
const defaultBufferMillis = 100

var (
	paOnce sync.Once
	paErr  error
)

// initPortAudio initializes PortAudio once per process
func initPortAudio() error {
	paOnce.Do(func() {
		if err := portaudio.Initialize(); err != nil {
			paErr = fmt.Errorf("failed to initialize PortAudio: %w", err)
		}
	})
	return paErr
}

// DeviceInfo holds information about an audio device
type DeviceInfo struct {
	Name              string
	MaxInputChannels  int
	DefaultSampleRate float64
	IsDefault         bool
}

// ListInputDevices returns a list of available input devices
func ListInputDevices() ([]DeviceInfo, error) {
	if err := initPortAudio(); err != nil {
		return nil, err
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("failed to get devices: %w", err)
	}

	defaultInput, _ := portaudio.DefaultInputDevice()
	var defaultInputName string
	if defaultInput != nil {
		defaultInputName = defaultInput.Name
	}

	var inputDevices []DeviceInfo
	for _, dev := range devices {
		if dev.MaxInputChannels > 0 {
			inputDevices = append(inputDevices, DeviceInfo{
				Name:              dev.Name,
				MaxInputChannels:  dev.MaxInputChannels,
				DefaultSampleRate: dev.DefaultSampleRate,
				IsDefault:         dev.Name == defaultInputName,
			})
		}
	}

	return inputDevices, nil
}

// PortAudioFactory returns a DeviceFactory for the named input device.
// An empty name or "default" selects the default input device.
func PortAudioFactory(deviceName string) DeviceFactory {
	return func() (Device, error) {
		if err := initPortAudio(); err != nil {
			return nil, err
		}
		return &PortAudioDevice{
			deviceName: deviceName,
			logger:     logging.New("audio-portaudio"),
		}, nil
	}
}

// PortAudioDevice reads 16-bit PCM from a PortAudio input stream
type PortAudioDevice struct {
	mu         sync.Mutex
	deviceName string
	stream     *portaudio.Stream
	buffer     []int16
	stopped    bool
	released   bool
	logger     *logging.Logger
}

// findDevice resolves the configured device, nil meaning the default
func (d *PortAudioDevice) findDevice() *portaudio.DeviceInfo {
	if d.deviceName == "" || d.deviceName == "default" {
		return nil
	}

	devices, err := portaudio.Devices()
	if err != nil {
		return nil
	}
	for _, dev := range devices {
		if dev.Name == d.deviceName && dev.MaxInputChannels > 0 {
			return dev
		}
	}

	d.logger.Warn("Input device not found, using default", "device", d.deviceName)
	return nil
}

// MinBufferSize derives the buffer from the device's low input latency
func (d *PortAudioDevice) MinBufferSize(f Format) int {
	dev := d.findDevice()
	if dev == nil {
		var err error
		if dev, err = portaudio.DefaultInputDevice(); err != nil || dev == nil {
			return 0
		}
	}

	frames := int(dev.DefaultLowInputLatency.Seconds() * float64(f.SampleRate))
	if frames <= 0 {
		frames = f.SampleRate * defaultBufferMillis / 1000
	}
	return frames * f.BytesPerFrame()
}

// Open opens the input stream
func (d *PortAudioDevice) Open(f Format, bufferBytes int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream != nil {
		return errors.New("device already open")
	}
	if f.BitDepth != 16 {
		return fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}

	frames := bufferBytes / f.BytesPerFrame()
	if frames <= 0 {
		return fmt.Errorf("invalid buffer size %d", bufferBytes)
	}
	d.buffer = make([]int16, frames*f.Channels)

	var stream *portaudio.Stream
	var err error

	if dev := d.findDevice(); dev != nil {
		params := portaudio.StreamParameters{
			Input: portaudio.StreamDeviceParameters{
				Device:   dev,
				Channels: f.Channels,
				Latency:  dev.DefaultLowInputLatency,
			},
			SampleRate:      float64(f.SampleRate),
			FramesPerBuffer: frames,
		}
		stream, err = portaudio.OpenStream(params, d.buffer)
	} else {
		stream, err = portaudio.OpenDefaultStream(f.Channels, 0, float64(f.SampleRate), frames, d.buffer)
	}
	if err != nil {
		return fmt.Errorf("failed to open audio stream: %w", err)
	}

	d.stream = stream
	return nil
}

// StartRecording starts the stream
func (d *PortAudioDevice) StartRecording() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stream == nil {
		return errors.New("device not open")
	}
	if err := d.stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	return nil
}

// Read fills buf with one buffer of PCM
func (d *PortAudioDevice) Read(buf []byte) (int, error) {
	d.mu.Lock()
	stream := d.stream
	stopped := d.stopped
	d.mu.Unlock()

	if stream == nil || stopped {
		return 0, nil
	}

	// Overflow means samples were lost before this read; the buffer
	// itself is still valid.
	if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		d.mu.Lock()
		stopped = d.stopped
		d.mu.Unlock()
		if stopped {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read audio stream: %w", err)
	}

	n := 2 * len(d.buffer)
	if n > len(buf) {
		n = len(buf) &^ 1
	}
	for i := 0; i < n/2; i++ {
		binary.LittleEndian.PutUint16(buf[2*i:], uint16(d.buffer[i]))
	}
	return n, nil
}

// Stop aborts the stream so a pending Read returns
func (d *PortAudioDevice) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.released || d.stream == nil {
		d.stopped = true
		return nil
	}
	d.stopped = true

	if err := d.stream.Abort(); err != nil {
		return fmt.Errorf("failed to stop audio stream: %w", err)
	}
	return nil
}

// Release closes the stream
func (d *PortAudioDevice) Release() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return nil
	}
	d.released = true

	if d.stream == nil {
		return nil
	}
	err := d.stream.Close()
	d.stream = nil
	if err != nil {
		return fmt.Errorf("failed to close audio stream: %w", err)
	}
	return nil
}
