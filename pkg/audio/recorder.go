package audio

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNoSpeech is returned when a recording finishes without any chunk
// crossing the silence threshold.
var ErrNoSpeech = errors.New("audio: no speech detected")

// Recorder captures a single utterance from a Device using RMS-based
// voice activity detection. Recording runs until the speaker has been
// silent for SilenceDuration, the MaxDuration cap is hit, or the
// context is cancelled.
type Recorder struct {
	device Device
	cfg    Config
	logger *slog.Logger
}

// NewRecorder creates a recorder over the given device.
func NewRecorder(device Device, cfg Config, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		device: device,
		cfg:    cfg,
		logger: logger.With("component", "audio.recorder"),
	}
}

// Record captures one utterance and returns it as a WAV buffer.
//
// Leading silence is discarded. Once speech starts, every chunk is kept
// (pauses included) until the trailing silence window fills. Returns
// ErrNoSpeech if the cap or cancellation arrives before any speech.
func (r *Recorder) Record(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MaxDuration)
	defer cancel()

	stream, err := r.device.StartCapture(ctx)
	if err != nil {
		return nil, err
	}
	defer r.device.StopCapture()

	var (
		pcm         []byte
		speechSeen  bool
		silentFor   time.Duration
		recordedFor time.Duration
	)

	for {
		select {
		case <-ctx.Done():
			return r.finish(pcm, speechSeen, ctx.Err())

		case chunk, ok := <-stream:
			if !ok {
				return r.finish(pcm, speechSeen, ctx.Err())
			}

			chunkDur := time.Duration(chunk.Duration() * float64(time.Second))
			loud := chunk.RMS() >= r.cfg.SilenceThreshold

			if !speechSeen {
				if !loud {
					continue
				}
				speechSeen = true
				r.logger.Debug("speech started")
			}

			pcm = append(pcm, chunk.Bytes()...)
			recordedFor += chunkDur

			if loud {
				silentFor = 0
			} else {
				silentFor += chunkDur
				if silentFor >= r.cfg.SilenceDuration {
					r.logger.Debug("speech ended",
						"recorded", recordedFor,
						"bytes", len(pcm),
					)
					return EncodeWAV(pcm, r.cfg.SampleRate, r.cfg.Channels), nil
				}
			}
		}
	}
}

// finish resolves a recording that ended without the silence window
// filling: keep what was captured if speech was heard, otherwise fail.
func (r *Recorder) finish(pcm []byte, speechSeen bool, cause error) ([]byte, error) {
	if !speechSeen {
		if cause != nil && !errors.Is(cause, context.DeadlineExceeded) {
			return nil, cause
		}
		return nil, ErrNoSpeech
	}

	if cause != nil && errors.Is(cause, context.Canceled) {
		return nil, cause
	}

	r.logger.Debug("recording capped", "bytes", len(pcm))
	return EncodeWAV(pcm, r.cfg.SampleRate, r.cfg.Channels), nil
}

// Player plays synthesized replies through a Device.
type Player struct {
	device Device
	logger *slog.Logger
}

// NewPlayer creates a player over the given device.
func NewPlayer(device Device, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		device: device,
		logger: logger.With("component", "audio.player"),
	}
}

// Play blocks until the WAV buffer finishes playing or ctx is cancelled.
func (p *Player) Play(ctx context.Context, wav []byte) error {
	if len(wav) == 0 {
		return nil
	}

	start := time.Now()
	if err := p.device.Play(ctx, wav); err != nil {
		return err
	}

	p.logger.Debug("playback finished",
		"bytes", len(wav),
		"elapsed", time.Since(start),
	)
	return nil
}
