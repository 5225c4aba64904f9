package audio

import (
	"fmt"
	"time"
)

// Config holds capture and playback configuration.
type Config struct {
	// SampleRate is the capture sample rate in Hz.
	// Default: 22050, matching the synthesis output rate.
	SampleRate int

	// Channels is the number of audio channels. Default: 1 (mono).
	Channels int

	// ChunkDuration is the size of capture buffers. Default: 100ms.
	ChunkDuration time.Duration

	// CaptureDevice is the ALSA capture device ("default", "plughw:1,0").
	CaptureDevice string

	// PlaybackDevice is the ALSA playback device.
	PlaybackDevice string

	// SilenceThreshold is the normalized RMS level below which a chunk
	// counts as silence. Default: 0.01.
	SilenceThreshold float64

	// SilenceDuration is how long silence must persist before the
	// recorder considers the utterance finished. Default: 1.5s.
	SilenceDuration time.Duration

	// MaxDuration is the hard cap on a single recording. Default: 30s.
	MaxDuration time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:       22050,
		Channels:         1,
		ChunkDuration:    100 * time.Millisecond,
		CaptureDevice:    "default",
		PlaybackDevice:   "default",
		SilenceThreshold: 0.01,
		SilenceDuration:  1500 * time.Millisecond,
		MaxDuration:      30 * time.Second,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("channels must be positive, got %d", c.Channels)
	}
	if c.ChunkDuration <= 0 {
		return fmt.Errorf("chunk_duration must be positive, got %v", c.ChunkDuration)
	}
	if c.SilenceDuration <= 0 {
		return fmt.Errorf("silence_duration must be positive, got %v", c.SilenceDuration)
	}
	if c.MaxDuration <= c.SilenceDuration {
		return fmt.Errorf("max_duration %v must exceed silence_duration %v", c.MaxDuration, c.SilenceDuration)
	}
	return nil
}

// ChunkSize returns the number of samples per capture chunk.
func (c *Config) ChunkSize() int {
	return int(float64(c.SampleRate) * c.ChunkDuration.Seconds())
}

// ChunkBytes returns the size of a capture chunk in bytes.
func (c *Config) ChunkBytes() int {
	return c.ChunkSize() * c.Channels * 2
}
