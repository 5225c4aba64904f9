package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
)

// ALSADevice captures and plays audio through the ALSA userspace tools.
// arecord streams raw PCM16 from the microphone; aplay drains WAV buffers
// to the speaker. Both run as child processes so the service needs no
// CGO audio bindings.
type ALSADevice struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	capture *exec.Cmd
	cancel  context.CancelFunc
	closed  bool
}

// NewALSADevice creates an ALSA-backed device.
func NewALSADevice(cfg Config, logger *slog.Logger) (*ALSADevice, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ALSADevice{
		cfg:    cfg,
		logger: logger.With("component", "audio.alsa"),
	}, nil
}

// StartCapture spawns arecord and returns the chunk stream.
func (d *ALSADevice) StartCapture(ctx context.Context) (<-chan Chunk, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, io.ErrClosedPipe
	}
	if d.capture != nil {
		return nil, fmt.Errorf("audio: capture already running")
	}

	captureCtx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(captureCtx, "arecord",
		"-q",
		"-D", d.cfg.CaptureDevice,
		"-f", "S16_LE",
		"-r", strconv.Itoa(d.cfg.SampleRate),
		"-c", strconv.Itoa(d.cfg.Channels),
		"-t", "raw",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("audio: capture pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("audio: start arecord: %w", err)
	}

	d.capture = cmd
	d.cancel = cancel

	d.logger.Info("capture started",
		"device", d.cfg.CaptureDevice,
		"sample_rate", d.cfg.SampleRate,
	)

	ch := make(chan Chunk, 10)
	go d.readLoop(captureCtx, stdout, ch)

	return ch, nil
}

// readLoop slices the raw PCM stream into fixed-size chunks.
func (d *ALSADevice) readLoop(ctx context.Context, r io.Reader, ch chan<- Chunk) {
	defer close(ch)

	buf := make([]byte, d.cfg.ChunkBytes())
	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			if ctx.Err() == nil && err != io.EOF && err != io.ErrUnexpectedEOF {
				d.logger.Warn("capture read failed", "error", err)
			}
			return
		}

		var chunk Chunk
		chunk.FromBytes(buf, d.cfg.SampleRate, d.cfg.Channels)

		select {
		case ch <- chunk:
		case <-ctx.Done():
			return
		}
	}
}

// StopCapture kills the arecord process.
func (d *ALSADevice) StopCapture() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}

	d.cancel()
	d.capture.Wait()
	d.capture = nil
	d.cancel = nil

	d.logger.Info("capture stopped")
	return nil
}

// Play pipes a WAV buffer through aplay, blocking until playback
// finishes or ctx is cancelled.
func (d *ALSADevice) Play(ctx context.Context, wav []byte) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return io.ErrClosedPipe
	}
	device := d.cfg.PlaybackDevice
	d.mu.Unlock()

	cmd := exec.CommandContext(ctx, "aplay",
		"-q",
		"-D", device,
		"-t", "wav",
		"-",
	)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("audio: playback pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("audio: start aplay: %w", err)
	}

	if _, err := stdin.Write(wav); err != nil {
		cmd.Process.Kill()
		cmd.Wait()
		return fmt.Errorf("audio: write playback: %w", err)
	}
	stdin.Close()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("audio: aplay: %w", err)
	}

	d.logger.Debug("playback complete", "bytes", len(wav))
	return nil
}

// Name returns "alsa".
func (d *ALSADevice) Name() string {
	return "alsa"
}

// Close stops capture and releases resources.
func (d *ALSADevice) Close() error {
	d.StopCapture()

	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	return nil
}

// Verify ALSADevice implements Device at compile time.
var _ Device = (*ALSADevice)(nil)
