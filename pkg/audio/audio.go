// Package audio provides microphone capture with voice activity detection
// and speaker playback.
//
// Capture and playback both run against a Device, with two backends:
//   - ALSA (arecord/aplay) for the production Linux box
//   - Mock for tests and machines without audio hardware
//
// The Recorder sits on top of a Device and turns the raw chunk stream
// into a single utterance: it waits for speech, accumulates samples,
// and stops after a sustained silence or a hard duration cap.
package audio

import (
	"context"
	"math"
)

// Chunk represents a short buffer of captured audio.
type Chunk struct {
	// Samples contains PCM16 audio samples (little-endian).
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Bytes returns the raw little-endian bytes of the chunk.
func (c *Chunk) Bytes() []byte {
	buf := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

// FromBytes populates the chunk from raw PCM16 bytes.
func (c *Chunk) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = make([]int16, len(data)/2)
	for i := range c.Samples {
		c.Samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
}

// Duration returns the chunk duration in seconds.
func (c *Chunk) Duration() float64 {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate*c.Channels)
}

// RMS returns the root-mean-square amplitude of the chunk, normalized
// to [0, 1]. Used by the voice activity detector.
func (c *Chunk) RMS() float64 {
	if len(c.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range c.Samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(c.Samples)))
}

// Device abstracts the audio hardware: a capture stream and a playback path.
type Device interface {
	// StartCapture begins capture and returns the chunk stream.
	// The channel is closed when capture stops or ctx is cancelled.
	StartCapture(ctx context.Context) (<-chan Chunk, error)

	// StopCapture halts capture. Safe to call multiple times.
	StopCapture() error

	// Play plays a complete WAV buffer, blocking until playback finishes
	// or ctx is cancelled.
	Play(ctx context.Context, wav []byte) error

	// Name returns the backend name (e.g. "alsa", "mock").
	Name() string

	// Close releases all resources.
	Close() error
}
