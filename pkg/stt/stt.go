// Package stt provides a unified interface for speech-to-text providers.
//
// The package supports the OpenAI Whisper API and Google Cloud Speech.
// All providers implement the Provider interface, enabling seamless
// switching without changing caller code; Chain falls back across
// providers in order.
//
// Example usage:
//
//	provider, _ := stt.NewWhisper(
//	    stt.WithAPIKey(os.Getenv("OPENAI_API_KEY")),
//	    stt.WithLanguage("ar"),
//	)
//	defer provider.Close()
//
//	result, _ := provider.Transcribe(ctx, wavBytes)
package stt

import "context"

// Provider defines the speech-to-text provider interface.
type Provider interface {
	// Transcribe converts audio bytes (WAV, PCM16 mono) to text.
	// An empty transcript is not an error at this layer; callers decide
	// whether empty text constitutes a failure.
	Transcribe(ctx context.Context, audio []byte) (*Result, error)

	// Health checks provider connectivity and credential validity.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}

// Result is a completed transcription.
type Result struct {
	// Text is the transcript. May be empty when no speech was recognized.
	Text string

	// Language is the language the provider assumed or detected.
	Language string

	// Confidence in [0,1] where the provider reports one, else 0.
	Confidence float64

	// LatencyMs is the request round-trip time in milliseconds.
	LatencyMs int64
}
