package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakina-labs/sakina/internal/httpc"
)

const (
	xttsBaseURL  = "http://localhost:8020"
	providerXTTS = "xtts"
)

// XTTS implements Provider against a local Coqui XTTS API server.
//
// XTTS clones the voice from a reference speaker recording, which is what
// makes the Omani Arabic voice possible: no hosted service offers the
// dialect, so synthesis runs locally against a recorded speaker sample.
type XTTS struct {
	config  *Config
	client  *http.Client
	logger  *slog.Logger
	baseURL string
}

// NewXTTS creates a new XTTS provider talking to a local XTTS API server.
// A reference speaker recording is required.
func NewXTTS(opts ...Option) (*XTTS, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)

	if cfg.SpeakerWav == "" {
		return nil, ErrNoSpeakerWav
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = xttsBaseURL
	}

	return &XTTS{
		config:  cfg,
		client:  httpc.NewClient(cfg.Timeout),
		logger:  cfg.Logger.With("component", "tts.xtts"),
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Synthesize converts text to a complete WAV buffer.
func (x *XTTS) Synthesize(ctx context.Context, text string) (*AudioResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerXTTS, ErrEmptyText)
	}

	start := time.Now()

	payload := map[string]string{
		"text":        text,
		"speaker_wav": x.config.SpeakerWav,
		"language":    x.config.Language,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, WrapError(providerXTTS, fmt.Errorf("marshal payload: %w", err))
	}

	var resp *http.Response
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", x.baseURL+"/tts_to_audio/", bytes.NewReader(body))
		if err != nil {
			return nil, WrapError(providerXTTS, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "audio/wav")

		resp, err = x.client.Do(req)
		if err != nil {
			return nil, WrapError(providerXTTS, fmt.Errorf("synthesis request: %w", err))
		}

		if resp.StatusCode == http.StatusOK || attempt >= x.config.MaxRetries || resp.StatusCode < 500 {
			break
		}

		resp.Body.Close()
		x.logger.Warn("synthesis failed, retrying",
			"status", resp.StatusCode,
			"attempt", attempt+1,
		)
		select {
		case <-time.After(x.config.RetryDelay):
		case <-ctx.Done():
			return nil, WrapError(providerXTTS, ctx.Err())
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, x.parseError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(providerXTTS, fmt.Errorf("read response: %w", err))
	}

	latency := time.Since(start).Milliseconds()
	x.logger.Debug("synthesized audio",
		"chars", len(text),
		"bytes", len(audio),
		"latency_ms", latency,
	)

	format := x.outputFormat()
	return &AudioResult{
		Audio:     audio,
		Format:    format,
		CharCount: len(text),
		LatencyMs: latency,
		Duration:  estimatePCMDuration(len(audio), format.SampleRate),
	}, nil
}

// Stream requests chunked synthesis from the server's streaming endpoint.
func (x *XTTS) Stream(ctx context.Context, text string) (AudioStream, error) {
	if strings.TrimSpace(text) == "" {
		return nil, WrapError(providerXTTS, ErrEmptyText)
	}

	q := url.Values{}
	q.Set("text", text)
	q.Set("speaker_wav", x.config.SpeakerWav)
	q.Set("language", x.config.Language)

	req, err := http.NewRequestWithContext(ctx, "GET", x.baseURL+"/tts_stream?"+q.Encode(), nil)
	if err != nil {
		return nil, WrapError(providerXTTS, err)
	}

	client := httpc.NewClient(x.config.StreamTimeout)
	resp, err := client.Do(req)
	if err != nil {
		return nil, WrapError(providerXTTS, fmt.Errorf("stream request: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, x.parseError(resp)
	}

	return &httpStream{
		body:   resp.Body,
		format: x.outputFormat(),
	}, nil
}

// Health checks that the XTTS server is reachable.
func (x *XTTS) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", x.baseURL+"/speakers_list", nil)
	if err != nil {
		return WrapError(providerXTTS, err)
	}

	resp, err := x.client.Do(req)
	if err != nil {
		return WrapError(providerXTTS, fmt.Errorf("health check: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return x.parseError(resp)
	}
	return nil
}

// Close releases resources held by the provider.
func (x *XTTS) Close() error {
	x.client.CloseIdleConnections()
	return nil
}

// SpeakerWav returns the configured reference speaker recording path.
func (x *XTTS) SpeakerWav() string {
	return x.config.SpeakerWav
}

func (x *XTTS) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Detail string `json:"detail"`
	}
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &errResp) == nil && errResp.Detail != "" {
		message = errResp.Detail
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    message,
		Provider:   providerXTTS,
	}
}

func (x *XTTS) outputFormat() AudioFormat {
	return AudioFormat{
		Encoding:   x.config.OutputFormat,
		SampleRate: SampleRateFromEncoding(x.config.OutputFormat),
		Channels:   1,
		BitDepth:   16,
	}
}

// estimatePCMDuration estimates playback duration for mono PCM16 audio.
func estimatePCMDuration(byteCount, sampleRate int) time.Duration {
	samples := byteCount / 2
	seconds := float64(samples) / float64(sampleRate)
	return time.Duration(seconds * float64(time.Second))
}

// httpStream wraps an HTTP response body as AudioStream.
type httpStream struct {
	body   io.ReadCloser
	format AudioFormat
	buf    [4096]byte
}

// Read returns the next audio chunk.
func (s *httpStream) Read() ([]byte, error) {
	n, err := s.body.Read(s.buf[:])
	if n > 0 {
		chunk := make([]byte, n)
		copy(chunk, s.buf[:n])
		return chunk, nil
	}
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte{}, nil
}

// Close stops the stream.
func (s *httpStream) Close() error {
	return s.body.Close()
}

// Format returns the audio format.
func (s *httpStream) Format() AudioFormat {
	return s.format
}

// Verify XTTS implements Provider at compile time.
var _ Provider = (*XTTS)(nil)
