package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestXTTSSynthesize(t *testing.T) {
	fakeWAV := []byte("RIFF....WAVEfmt fake audio payload")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tts_to_audio/" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}

		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["text"] != "مرحبا بك" {
			t.Errorf("unexpected text %q", payload["text"])
		}
		if payload["speaker_wav"] != "voices/ref.wav" {
			t.Errorf("unexpected speaker_wav %q", payload["speaker_wav"])
		}
		if payload["language"] != "ar" {
			t.Errorf("unexpected language %q", payload["language"])
		}

		w.Header().Set("Content-Type", "audio/wav")
		w.Write(fakeWAV)
	}))
	defer server.Close()

	provider, err := NewXTTS(
		WithSpeakerWav("voices/ref.wav"),
		WithBaseURL(server.URL),
	)
	if err != nil {
		t.Fatalf("NewXTTS failed: %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "مرحبا بك")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(result.Audio) != len(fakeWAV) {
		t.Errorf("expected %d audio bytes, got %d", len(fakeWAV), len(result.Audio))
	}
	if result.Format.SampleRate != 22050 {
		t.Errorf("expected 22050Hz, got %d", result.Format.SampleRate)
	}
}

func TestXTTSErrors(t *testing.T) {
	t.Run("missing speaker wav", func(t *testing.T) {
		if _, err := NewXTTS(); !errors.Is(err, ErrNoSpeakerWav) {
			t.Errorf("expected ErrNoSpeakerWav, got %v", err)
		}
	})

	t.Run("empty text", func(t *testing.T) {
		provider, err := NewXTTS(WithSpeakerWav("voices/ref.wav"))
		if err != nil {
			t.Fatalf("NewXTTS failed: %v", err)
		}
		if _, err := provider.Synthesize(context.Background(), "  "); !errors.Is(err, ErrEmptyText) {
			t.Errorf("expected ErrEmptyText, got %v", err)
		}
	})

	t.Run("server error detail", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"detail": "unknown language"})
		}))
		defer server.Close()

		provider, err := NewXTTS(WithSpeakerWav("voices/ref.wav"), WithBaseURL(server.URL))
		if err != nil {
			t.Fatalf("NewXTTS failed: %v", err)
		}

		_, err = provider.Synthesize(context.Background(), "مرحبا")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %T: %v", err, err)
		}
		if apiErr.Message != "unknown language" {
			t.Errorf("expected detail message, got %q", apiErr.Message)
		}
		if apiErr.IsRetryable() {
			t.Error("400 should not be retryable")
		}
	})
}

func TestElevenLabsValidation(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		if _, err := NewElevenLabs(); !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("missing voice ID", func(t *testing.T) {
		if _, err := NewElevenLabs(WithAPIKey("key")); !errors.Is(err, ErrNoVoiceID) {
			t.Errorf("expected ErrNoVoiceID, got %v", err)
		}
	})
}

func TestElevenLabsSynthesize(t *testing.T) {
	fakePCM := make([]byte, 4410) // 100ms at 22.05kHz PCM16

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/voice-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["model_id"] != ModelMultilingualV2 {
			t.Errorf("unexpected model %v", payload["model_id"])
		}

		w.Write(fakePCM)
	}))
	defer server.Close()

	provider, err := NewElevenLabs(
		WithAPIKey("test-key"),
		WithVoice("voice-1"),
		WithBaseURL(server.URL),
	)
	if err != nil {
		t.Fatalf("NewElevenLabs failed: %v", err)
	}
	defer provider.Close()

	result, err := provider.Synthesize(context.Background(), "كيف حالك")
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(result.Audio) != len(fakePCM) {
		t.Errorf("expected %d bytes, got %d", len(fakePCM), len(result.Audio))
	}
	if got := result.Duration; got != 100*time.Millisecond {
		t.Errorf("expected 100ms duration estimate, got %v", got)
	}
}

func TestElevenLabsStream(t *testing.T) {
	chunks := [][]byte{[]byte("chunk-one-pcm"), []byte("chunk-two-pcm")}

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/text-to-speech/voice-1/stream-input" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "test-key" {
			t.Errorf("unexpected api key header %q", got)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Opening message carries the voice settings for the session.
		var open map[string]interface{}
		if err := conn.ReadJSON(&open); err != nil {
			t.Errorf("read open: %v", err)
			return
		}
		if _, ok := open["voice_settings"]; !ok {
			t.Error("opening message missing voice_settings")
		}

		var msg map[string]string
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read text: %v", err)
			return
		}
		if msg["text"] != "كيف حالك" {
			t.Errorf("unexpected text %q", msg["text"])
		}

		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("read end-of-input: %v", err)
			return
		}
		if msg["text"] != "" {
			t.Errorf("expected empty end-of-input marker, got %q", msg["text"])
		}

		for _, chunk := range chunks {
			conn.WriteJSON(map[string]interface{}{
				"audio": base64.StdEncoding.EncodeToString(chunk),
			})
		}
		conn.WriteJSON(map[string]interface{}{"isFinal": true})
	}))
	defer server.Close()

	provider, err := NewElevenLabs(
		WithAPIKey("test-key"),
		WithVoice("voice-1"),
		WithBaseURL(server.URL),
	)
	if err != nil {
		t.Fatalf("NewElevenLabs failed: %v", err)
	}
	defer provider.Close()

	stream, err := provider.Stream(context.Background(), "كيف حالك")
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	defer stream.Close()

	if got := stream.Format().SampleRate; got != 22050 {
		t.Errorf("expected 22050Hz stream, got %d", got)
	}

	var received [][]byte
	for {
		chunk, err := stream.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if chunk == nil {
			break
		}
		received = append(received, chunk)
	}

	if len(received) != len(chunks) {
		t.Fatalf("expected %d chunks, got %d", len(chunks), len(received))
	}
	for i, chunk := range chunks {
		if string(received[i]) != string(chunk) {
			t.Errorf("chunk %d: expected %q, got %q", i, chunk, received[i])
		}
	}
}

func TestChainFallback(t *testing.T) {
	t.Run("primary succeeds", func(t *testing.T) {
		primary := NewMock()
		backup := NewMock()

		chain, err := NewChain(primary, backup)
		if err != nil {
			t.Fatalf("NewChain failed: %v", err)
		}

		if _, err := chain.Synthesize(context.Background(), "مرحبا"); err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}
		if backup.CallCount("Synthesize") != 0 {
			t.Error("backup should not have been called")
		}
	})

	t.Run("falls back when primary fails", func(t *testing.T) {
		primary := WithError(errors.New("server down"))
		backup := NewMock()

		chain, err := NewChain(primary, backup)
		if err != nil {
			t.Fatalf("NewChain failed: %v", err)
		}

		result, err := chain.Synthesize(context.Background(), "مرحبا")
		if err != nil {
			t.Fatalf("Synthesize failed: %v", err)
		}
		if len(result.Audio) == 0 {
			t.Error("expected audio from backup provider")
		}
		if backup.CallCount("Synthesize") != 1 {
			t.Errorf("expected 1 backup call, got %d", backup.CallCount("Synthesize"))
		}
	})

	t.Run("all providers fail", func(t *testing.T) {
		chain, err := NewChain(
			WithError(errors.New("first down")),
			WithError(errors.New("second down")),
		)
		if err != nil {
			t.Fatalf("NewChain failed: %v", err)
		}

		_, err = chain.Synthesize(context.Background(), "مرحبا")
		var chainErr *ChainError
		if !errors.As(err, &chainErr) {
			t.Fatalf("expected ChainError, got %T", err)
		}
		if len(chainErr.Errors) != 2 {
			t.Errorf("expected 2 errors, got %d", len(chainErr.Errors))
		}
	})

	t.Run("empty chain rejected", func(t *testing.T) {
		if _, err := NewChain(); !errors.Is(err, ErrProviderUnavailable) {
			t.Errorf("expected ErrProviderUnavailable, got %v", err)
		}
	})
}

func TestMockStream(t *testing.T) {
	mock := NewMock()

	stream, err := mock.Stream(context.Background(), "مرحبا")
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	defer stream.Close()

	var total int
	for {
		chunk, err := stream.Read()
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		if chunk == nil {
			break
		}
		total += len(chunk)
	}
	if total == 0 {
		t.Error("expected audio bytes from stream")
	}
}

func TestEstimatePCMDuration(t *testing.T) {
	// 1 second of 22.05kHz mono PCM16 is 44100 bytes
	if got := estimatePCMDuration(44100, 22050); got != time.Second {
		t.Errorf("expected 1s, got %v", got)
	}
}
