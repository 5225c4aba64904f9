package stt

import (
	"context"
	"log/slog"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"
)

const providerGoogle = "google"

// GoogleSpeech implements Provider for Google Cloud Speech-to-Text.
// It serves as the fallback transcription path when Whisper is down.
type GoogleSpeech struct {
	client *speech.Client
	config *Config
	logger *slog.Logger
}

// NewGoogleSpeech creates a Google Cloud Speech provider. Credentials
// come from the environment (GOOGLE_APPLICATION_CREDENTIALS) unless a
// credentials file is given.
func NewGoogleSpeech(ctx context.Context, credentialsFile string, opts ...Option) (*GoogleSpeech, error) {
	cfg := DefaultConfig()
	cfg.Language = "ar-OM"
	cfg.Apply(opts...)

	var clientOpts []option.ClientOption
	if credentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := speech.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, WrapError(providerGoogle, err)
	}

	return &GoogleSpeech{
		client: client,
		config: cfg,
		logger: cfg.Logger.With("component", "stt.google"),
	}, nil
}

// Transcribe recognizes LINEAR16 audio and returns the best alternative.
func (g *GoogleSpeech) Transcribe(ctx context.Context, audio []byte) (*Result, error) {
	if len(audio) == 0 {
		return nil, WrapError(providerGoogle, ErrEmptyAudio)
	}

	start := time.Now()

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(g.config.SampleRate),
			LanguageCode:               g.config.Language,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return nil, WrapError(providerGoogle, err)
	}

	var bestText string
	var bestConf float64
	for _, r := range resp.Results {
		for _, alt := range r.Alternatives {
			if alt.Transcript != "" && float64(alt.Confidence) >= bestConf {
				bestText = alt.Transcript
				bestConf = float64(alt.Confidence)
			}
		}
	}

	latency := time.Since(start).Milliseconds()
	g.logger.Debug("transcription complete",
		"chars", len(bestText),
		"confidence", bestConf,
		"latency_ms", latency,
	)

	return &Result{
		Text:       bestText,
		Language:   g.config.Language,
		Confidence: bestConf,
		LatencyMs:  latency,
	}, nil
}

// Health verifies the client is usable by issuing a minimal request.
func (g *GoogleSpeech) Health(ctx context.Context) error {
	_, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: int32(g.config.SampleRate),
			LanguageCode:    g.config.Language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: []byte{0, 0}},
		},
	})
	return WrapError(providerGoogle, err)
}

// Close releases the underlying gRPC connection.
func (g *GoogleSpeech) Close() error {
	return g.client.Close()
}

// Verify GoogleSpeech implements Provider at compile time.
var _ Provider = (*GoogleSpeech)(nil)
