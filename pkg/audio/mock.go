package audio

import (
	"context"
	"sync"
)

// MockDevice implements Device for testing without hardware.
// Capture serves a scripted sequence of chunks; playback records what
// was played.
type MockDevice struct {
	// Script is the sequence of chunks StartCapture will serve.
	// When the script is exhausted the stream stays open (silent test
	// scripts should end with enough silence to trip the detector).
	Script []Chunk

	// PlayFunc overrides playback behavior. If nil, Play records the
	// buffer and returns nil.
	PlayFunc func(ctx context.Context, wav []byte) error

	mu       sync.Mutex
	played   [][]byte
	captures int
	stopped  bool
}

// NewMockDevice creates an empty mock device.
func NewMockDevice(script ...Chunk) *MockDevice {
	return &MockDevice{Script: script}
}

// StartCapture serves the scripted chunks on a channel.
func (d *MockDevice) StartCapture(ctx context.Context) (<-chan Chunk, error) {
	d.mu.Lock()
	d.captures++
	script := d.Script
	d.mu.Unlock()

	ch := make(chan Chunk, len(script))
	go func() {
		defer close(ch)
		for _, chunk := range script {
			select {
			case ch <- chunk:
			case <-ctx.Done():
				return
			}
		}
		// Keep the stream open until cancellation, as hardware would.
		<-ctx.Done()
	}()
	return ch, nil
}

// StopCapture records that capture was stopped.
func (d *MockDevice) StopCapture() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	return nil
}

// Play records the played buffer.
func (d *MockDevice) Play(ctx context.Context, wav []byte) error {
	if d.PlayFunc != nil {
		return d.PlayFunc(ctx, wav)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	buf := make([]byte, len(wav))
	copy(buf, wav)
	d.played = append(d.played, buf)
	return nil
}

// Name returns "mock".
func (d *MockDevice) Name() string {
	return "mock"
}

// Close is a no-op.
func (d *MockDevice) Close() error {
	return nil
}

// Played returns all buffers passed to Play.
func (d *MockDevice) Played() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	result := make([][]byte, len(d.played))
	copy(result, d.played)
	return result
}

// CaptureCount returns how many times StartCapture was called.
func (d *MockDevice) CaptureCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.captures
}

// Stopped reports whether StopCapture was called.
func (d *MockDevice) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

// SilentChunk builds a chunk of silence for test scripts.
func SilentChunk(samples, sampleRate int) Chunk {
	return Chunk{
		Samples:    make([]int16, samples),
		SampleRate: sampleRate,
		Channels:   1,
	}
}

// LoudChunk builds a chunk of constant amplitude for test scripts.
func LoudChunk(samples, sampleRate int, amplitude int16) Chunk {
	s := make([]int16, samples)
	for i := range s {
		s[i] = amplitude
	}
	return Chunk{
		Samples:    s,
		SampleRate: sampleRate,
		Channels:   1,
	}
}

// Verify MockDevice implements Device at compile time.
var _ Device = (*MockDevice)(nil)
