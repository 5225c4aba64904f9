package config

import (
	"errors"
	"strings"
	"testing"
)

// valid returns a config that passes validation; tests break one field at a time.
func valid() Config {
	c := DefaultConfig()
	c.OpenAIKey = "sk-test"
	c.AnthropicKey = "sk-ant-test"
	c.SpeakerWav = "voices/omani.wav"
	return c
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		wantErr  bool
		wantText string
	}{
		{"valid defaults", func(c *Config) {}, false, ""},
		{"missing openai key", func(c *Config) { c.OpenAIKey = "" }, true, "OPENAI_API_KEY"},
		{"missing anthropic key", func(c *Config) { c.AnthropicKey = "" }, true, "ANTHROPIC_API_KEY"},
		{"anthropic optional when validation off", func(c *Config) {
			c.AnthropicKey = ""
			c.ValidationPolicy = "never"
		}, false, ""},
		{"xtts needs speaker wav", func(c *Config) { c.SpeakerWav = "" }, true, "SPEAKER_WAV"},
		{"elevenlabs needs key", func(c *Config) {
			c.TTSMode = "elevenlabs"
			c.ElevenLabsKey = ""
		}, true, "ELEVENLABS_API_KEY"},
		{"elevenlabs with key", func(c *Config) {
			c.TTSMode = "elevenlabs"
			c.ElevenLabsKey = "el-test"
		}, false, ""},
		{"unknown tts mode", func(c *Config) { c.TTSMode = "sapi" }, true, "unknown TTS mode"},
		{"unknown validation policy", func(c *Config) { c.ValidationPolicy = "sometimes" }, true, "validation policy"},
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, true, "sample rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if tt.wantText != "" && !strings.Contains(err.Error(), tt.wantText) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantText)
			}
		})
	}
}

func TestLoadEnvConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	t.Setenv("SPEAKER_WAV", "/opt/voices/calm.wav")
	t.Setenv("XTTS_URL", "http://tts.local:8020")

	cfg := DefaultConfig()
	cfg.LoadEnvConfig()

	if cfg.OpenAIKey != "sk-env" {
		t.Errorf("OpenAIKey = %q", cfg.OpenAIKey)
	}
	if cfg.SpeakerWav != "/opt/voices/calm.wav" {
		t.Errorf("SpeakerWav = %q", cfg.SpeakerWav)
	}
	if cfg.XTTSURL != "http://tts.local:8020" {
		t.Errorf("XTTSURL = %q", cfg.XTTSURL)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("env-loaded config should validate: %v", err)
	}
}
