// Package config provides application configuration for sakina commands.
package config

import (
	"fmt"
	"os"
	"time"
)

// Default configuration values.
const (
	DefaultAddr           = ":8080"
	DefaultOutputDir      = "outputs"
	DefaultStaticDir      = "./web"
	DefaultXTTSURL        = "http://localhost:8020"
	DefaultSampleRate     = 22050
	DefaultResponseBudget = 20 * time.Second
)

// Config holds all configuration for the sakina application.
// Flag parsing is done in cmd/; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// Addr is the HTTP listen address.
	Addr string

	// OutputDir is where synthesized reply WAVs are written.
	OutputDir string

	// StaticDir holds the web UI assets.
	StaticDir string

	// TTSMode selects the synthesis backend: "xtts" or "elevenlabs".
	// The other backend, when configured, becomes the fallback.
	TTSMode string

	// XTTSURL is the local XTTS server base URL.
	XTTSURL string

	// SpeakerWav is the reference voice sample for XTTS cloning.
	SpeakerWav string

	// TTSVoice is the ElevenLabs voice ID.
	TTSVoice string

	// ContentPath optionally overrides the built-in therapeutic
	// content with a YAML file.
	ContentPath string

	// ValidationPolicy controls secondary-model review of replies:
	// "always", "crisis" or "never".
	ValidationPolicy string

	// ResponseBudget is the soft limit for a full turn; exceeding it
	// flags the result as slow.
	ResponseBudget time.Duration

	// SampleRate for capture and synthesis, in Hz.
	SampleRate int

	// API keys (typically from environment variables).
	OpenAIKey      string
	AnthropicKey   string
	ElevenLabsKey  string
	HuggingFaceKey string

	// GoogleCredentials is a service-account JSON path for the
	// Google Speech fallback transcriber. Optional.
	GoogleCredentials string
}

// DefaultConfig returns sensible defaults for sakina configuration.
func DefaultConfig() Config {
	return Config{
		Addr:             DefaultAddr,
		OutputDir:        DefaultOutputDir,
		StaticDir:        DefaultStaticDir,
		TTSMode:          "xtts",
		XTTSURL:          DefaultXTTSURL,
		ValidationPolicy: "always",
		ResponseBudget:   DefaultResponseBudget,
		SampleRate:       DefaultSampleRate,
	}
}

// LoadEnvConfig loads configuration values from environment variables.
// Call this after flag parsing to apply environment overrides.
func (c *Config) LoadEnvConfig() {
	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	c.ElevenLabsKey = os.Getenv("ELEVENLABS_API_KEY")
	c.HuggingFaceKey = os.Getenv("HF_API_KEY")
	c.GoogleCredentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")

	if url := os.Getenv("XTTS_URL"); url != "" {
		c.XTTSURL = url
	}
	if wav := os.Getenv("SPEAKER_WAV"); wav != "" {
		c.SpeakerWav = wav
	}
	if voice := os.Getenv("ELEVENLABS_VOICE_ID"); voice != "" {
		c.TTSVoice = voice
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.OpenAIKey == "" {
		return &ConfigError{Field: "OpenAIKey", Message: "OPENAI_API_KEY environment variable is required"}
	}
	if c.ValidationPolicy != "never" && c.AnthropicKey == "" {
		return &ConfigError{Field: "AnthropicKey", Message: "ANTHROPIC_API_KEY environment variable is required unless -validate=never"}
	}
	switch c.TTSMode {
	case "xtts":
		if c.SpeakerWav == "" {
			return &ConfigError{Field: "SpeakerWav", Message: "SPEAKER_WAV environment variable is required for XTTS voice cloning"}
		}
	case "elevenlabs":
		if c.ElevenLabsKey == "" {
			return &ConfigError{Field: "ElevenLabsKey", Message: "ELEVENLABS_API_KEY environment variable is required for ElevenLabs TTS"}
		}
	default:
		return &ConfigError{Field: "TTSMode", Message: fmt.Sprintf("unknown TTS mode %q (want xtts or elevenlabs)", c.TTSMode)}
	}
	switch c.ValidationPolicy {
	case "always", "crisis", "never":
	default:
		return &ConfigError{Field: "ValidationPolicy", Message: fmt.Sprintf("unknown validation policy %q (want always, crisis or never)", c.ValidationPolicy)}
	}
	if c.SampleRate <= 0 {
		return &ConfigError{Field: "SampleRate", Message: "sample rate must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
