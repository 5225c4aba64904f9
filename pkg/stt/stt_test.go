package stt

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChainFallback(t *testing.T) {
	t.Run("first provider succeeds", func(t *testing.T) {
		primary := WithText("أشعر بالقلق")
		backup := WithText("should not be used")

		chain, err := NewChain(primary, backup)
		if err != nil {
			t.Fatalf("NewChain failed: %v", err)
		}

		result, err := chain.Transcribe(context.Background(), []byte("wav"))
		if err != nil {
			t.Fatalf("Transcribe failed: %v", err)
		}
		if result.Text != "أشعر بالقلق" {
			t.Errorf("expected primary transcript, got %q", result.Text)
		}
		if backup.CallCount() != 0 {
			t.Error("backup should not have been called")
		}
	})

	t.Run("falls back when primary fails", func(t *testing.T) {
		primary := WithError(errors.New("api down"))
		backup := WithText("مرحبا")

		chain, err := NewChain(primary, backup)
		if err != nil {
			t.Fatalf("NewChain failed: %v", err)
		}

		result, err := chain.Transcribe(context.Background(), []byte("wav"))
		if err != nil {
			t.Fatalf("Transcribe failed: %v", err)
		}
		if result.Text != "مرحبا" {
			t.Errorf("expected backup transcript, got %q", result.Text)
		}
		if primary.CallCount() != 1 {
			t.Errorf("expected 1 primary call, got %d", primary.CallCount())
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

		_, err = chain.Transcribe(context.Background(), []byte("wav"))
		if err == nil {
			t.Fatal("expected error when all providers fail")
		}

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

	t.Run("cancelled context stops the chain", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		backup := WithText("unreachable")
		chain, err := NewChain(WithError(errors.New("down")), backup)
		if err != nil {
			t.Fatalf("NewChain failed: %v", err)
		}

		if _, err := chain.Transcribe(ctx, []byte("wav")); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if backup.CallCount() != 0 {
			t.Error("backup should not run after cancellation")
		}
	})
}

func TestWhisperTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}

		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("expected model whisper-1, got %q", got)
		}
		if got := r.FormValue("language"); got != "ar" {
			t.Errorf("expected language ar, got %q", got)
		}
		if _, _, err := r.FormFile("file"); err != nil {
			t.Errorf("missing file part: %v", err)
		}

		json.NewEncoder(w).Encode(map[string]string{"text": "  كيف حالك  "})
	}))
	defer server.Close()

	whisper, err := NewWhisper(
		WithAPIKey("test-key"),
		WithBaseURL(server.URL),
	)
	if err != nil {
		t.Fatalf("NewWhisper failed: %v", err)
	}

	result, err := whisper.Transcribe(context.Background(), []byte("RIFF...fake wav"))
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}
	if result.Text != "كيف حالك" {
		t.Errorf("expected trimmed transcript, got %q", result.Text)
	}
	if result.Language != "ar" {
		t.Errorf("expected language ar, got %q", result.Language)
	}
}

func TestWhisperErrors(t *testing.T) {
	t.Run("missing API key", func(t *testing.T) {
		if _, err := NewWhisper(); !errors.Is(err, ErrNoAPIKey) {
			t.Errorf("expected ErrNoAPIKey, got %v", err)
		}
	})

	t.Run("empty audio", func(t *testing.T) {
		whisper, err := NewWhisper(WithAPIKey("test-key"))
		if err != nil {
			t.Fatalf("NewWhisper failed: %v", err)
		}
		if _, err := whisper.Transcribe(context.Background(), nil); !errors.Is(err, ErrEmptyAudio) {
			t.Errorf("expected ErrEmptyAudio, got %v", err)
		}
	})

	t.Run("API error surfaces status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "invalid key"},
			})
		}))
		defer server.Close()

		whisper, err := NewWhisper(WithAPIKey("bad-key"), WithBaseURL(server.URL))
		if err != nil {
			t.Fatalf("NewWhisper failed: %v", err)
		}

		_, err = whisper.Transcribe(context.Background(), []byte("wav"))
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected APIError, got %T: %v", err, err)
		}
		if apiErr.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", apiErr.StatusCode)
		}
		if apiErr.IsRetryable() {
			t.Error("401 should not be retryable")
		}
	})
}
