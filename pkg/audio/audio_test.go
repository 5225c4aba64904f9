package audio

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"
)

func TestWAVRoundTrip(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

	wav := EncodeWAV(pcm, 22050, 1)
	if len(wav) != wavHeaderSize+len(pcm) {
		t.Fatalf("expected %d bytes, got %d", wavHeaderSize+len(pcm), len(wav))
	}

	decoded, rate, channels, err := DecodeWAV(wav)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}
	if rate != 22050 {
		t.Errorf("expected 22050Hz, got %d", rate)
	}
	if channels != 1 {
		t.Errorf("expected 1 channel, got %d", channels)
	}
	if string(decoded) != string(pcm) {
		t.Errorf("PCM data mismatch")
	}
}

func TestDecodeWAVRejectsGarbage(t *testing.T) {
	if _, _, _, err := DecodeWAV([]byte("not a wav file at all, just text")); !errors.Is(err, ErrNotWAV) {
		t.Errorf("expected ErrNotWAV, got %v", err)
	}
}

func TestWAVDuration(t *testing.T) {
	// 1 second of 22.05kHz mono PCM16
	pcm := make([]byte, 44100)
	wav := EncodeWAV(pcm, 22050, 1)

	if got := WAVDuration(wav); math.Abs(got-1.0) > 0.001 {
		t.Errorf("expected 1s duration, got %v", got)
	}
}

func TestChunkRMS(t *testing.T) {
	t.Run("silence is zero", func(t *testing.T) {
		chunk := SilentChunk(1000, 22050)
		if got := chunk.RMS(); got != 0 {
			t.Errorf("expected 0 RMS for silence, got %v", got)
		}
	})

	t.Run("constant amplitude", func(t *testing.T) {
		chunk := LoudChunk(1000, 22050, 16384)
		want := 0.5 // 16384/32768
		if got := chunk.RMS(); math.Abs(got-want) > 0.001 {
			t.Errorf("expected RMS %v, got %v", want, got)
		}
	})
}

func TestChunkBytesRoundTrip(t *testing.T) {
	original := Chunk{
		Samples:    []int16{0, 100, -100, 32767, -32768},
		SampleRate: 22050,
		Channels:   1,
	}

	var decoded Chunk
	decoded.FromBytes(original.Bytes(), 22050, 1)

	if len(decoded.Samples) != len(original.Samples) {
		t.Fatalf("sample count mismatch: %d vs %d", len(decoded.Samples), len(original.Samples))
	}
	for i := range original.Samples {
		if decoded.Samples[i] != original.Samples[i] {
			t.Errorf("sample %d: expected %d, got %d", i, original.Samples[i], decoded.Samples[i])
		}
	}
}

func recorderConfig() Config {
	cfg := DefaultConfig()
	cfg.ChunkDuration = 100 * time.Millisecond
	cfg.SilenceDuration = 300 * time.Millisecond
	cfg.MaxDuration = 2 * time.Second
	return cfg
}

func TestRecorderVAD(t *testing.T) {
	cfg := recorderConfig()
	chunkSamples := cfg.ChunkSize()

	t.Run("stops after trailing silence", func(t *testing.T) {
		device := NewMockDevice(
			SilentChunk(chunkSamples, cfg.SampleRate),
			SilentChunk(chunkSamples, cfg.SampleRate),
			LoudChunk(chunkSamples, cfg.SampleRate, 8000),
			LoudChunk(chunkSamples, cfg.SampleRate, 8000),
			LoudChunk(chunkSamples, cfg.SampleRate, 8000),
			SilentChunk(chunkSamples, cfg.SampleRate),
			SilentChunk(chunkSamples, cfg.SampleRate),
			SilentChunk(chunkSamples, cfg.SampleRate),
		)

		recorder := NewRecorder(device, cfg, nil)
		wav, err := recorder.Record(context.Background())
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}

		// Leading silence discarded: 3 loud + 3 trailing silent chunks kept.
		pcm, _, _, err := DecodeWAV(wav)
		if err != nil {
			t.Fatalf("DecodeWAV failed: %v", err)
		}
		want := 6 * chunkSamples * 2
		if len(pcm) != want {
			t.Errorf("expected %d PCM bytes, got %d", want, len(pcm))
		}
		if !device.Stopped() {
			t.Error("expected capture to be stopped")
		}
	})

	t.Run("no speech before cap", func(t *testing.T) {
		shortCfg := cfg
		shortCfg.MaxDuration = 500 * time.Millisecond

		device := NewMockDevice(
			SilentChunk(chunkSamples, cfg.SampleRate),
			SilentChunk(chunkSamples, cfg.SampleRate),
		)

		recorder := NewRecorder(device, shortCfg, nil)
		if _, err := recorder.Record(context.Background()); !errors.Is(err, ErrNoSpeech) {
			t.Errorf("expected ErrNoSpeech, got %v", err)
		}
	})

	t.Run("duration cap keeps captured speech", func(t *testing.T) {
		shortCfg := cfg
		shortCfg.MaxDuration = 400 * time.Millisecond

		device := NewMockDevice(
			LoudChunk(chunkSamples, cfg.SampleRate, 8000),
			LoudChunk(chunkSamples, cfg.SampleRate, 8000),
		)

		recorder := NewRecorder(device, shortCfg, nil)
		wav, err := recorder.Record(context.Background())
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		pcm, _, _, err := DecodeWAV(wav)
		if err != nil {
			t.Fatalf("DecodeWAV failed: %v", err)
		}
		if want := 2 * chunkSamples * 2; len(pcm) != want {
			t.Errorf("expected %d PCM bytes, got %d", want, len(pcm))
		}
	})

	t.Run("cancellation aborts recording", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		device := NewMockDevice(
			LoudChunk(chunkSamples, cfg.SampleRate, 8000),
		)

		recorder := NewRecorder(device, cfg, nil)
		if _, err := recorder.Record(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestPlayer(t *testing.T) {
	device := NewMockDevice()
	player := NewPlayer(device, nil)

	wav := EncodeWAV(make([]byte, 4410), 22050, 1)
	if err := player.Play(context.Background(), wav); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	played := device.Played()
	if len(played) != 1 {
		t.Fatalf("expected 1 played buffer, got %d", len(played))
	}
	if len(played[0]) != len(wav) {
		t.Errorf("played buffer size mismatch")
	}

	t.Run("empty buffer is a no-op", func(t *testing.T) {
		if err := player.Play(context.Background(), nil); err != nil {
			t.Fatalf("Play failed: %v", err)
		}
		if len(device.Played()) != 1 {
			t.Error("empty buffer should not reach the device")
		}
	})
}
