// Sakina - Arabic voice therapy assistant web service.
// Transcribes Omani Arabic speech, generates a therapeutic reply and
// speaks it back, with a browser dashboard for conversation and status.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakina-labs/sakina/internal/config"
	applog "github.com/sakina-labs/sakina/internal/log"
	"github.com/sakina-labs/sakina/pkg/emotion"
	"github.com/sakina-labs/sakina/pkg/inference"
	"github.com/sakina-labs/sakina/pkg/session"
	"github.com/sakina-labs/sakina/pkg/stt"
	"github.com/sakina-labs/sakina/pkg/therapy"
	"github.com/sakina-labs/sakina/pkg/tts"
	"github.com/sakina-labs/sakina/pkg/web"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := parseFlags()

	level := "info"
	if cfg.Debug {
		level = "debug"
	}
	applog.Init(level)
	logger := applog.Component("sakina")

	if err := cfg.Validate(); err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	orchestrator, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}

	server := web.NewServer(orchestrator,
		web.WithAddr(cfg.Addr),
		web.WithOutputDir(cfg.OutputDir),
		web.WithStaticDir(cfg.StaticDir),
		web.WithServerLogger(applog.Component("web")),
	)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := server.Shutdown(); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting", "addr", cfg.Addr, "tts", cfg.TTSMode)
	if err := server.Start(); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() config.Config {
	cfg := config.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	ttsMode := flag.String("tts", cfg.TTSMode, "TTS backend: xtts, elevenlabs")
	policy := flag.String("validate", cfg.ValidationPolicy, "Reply validation policy: always, crisis, never")
	budget := flag.Duration("budget", cfg.ResponseBudget, "Soft processing-time budget per turn")
	content := flag.String("content", "", "Path to a therapeutic content YAML file")
	output := flag.String("output", cfg.OutputDir, "Directory for synthesized reply audio")
	static := flag.String("static", cfg.StaticDir, "Directory with web UI assets")
	flag.Parse()

	cfg.Debug = *debug
	cfg.Addr = *addr
	cfg.TTSMode = *ttsMode
	cfg.ValidationPolicy = *policy
	cfg.ResponseBudget = *budget
	cfg.ContentPath = *content
	cfg.OutputDir = *output
	cfg.StaticDir = *static

	cfg.LoadEnvConfig()
	return cfg
}

// buildOrchestrator constructs the full pipeline from configuration:
// transcription chain, emotion classifier, reply generator and
// synthesis chain.
func buildOrchestrator(ctx context.Context, cfg config.Config) (*session.Orchestrator, error) {
	transcriber, err := buildTranscriber(ctx, cfg)
	if err != nil {
		return nil, err
	}

	classifier, err := buildClassifier(cfg)
	if err != nil {
		return nil, err
	}

	generator, err := buildGenerator(cfg)
	if err != nil {
		return nil, err
	}

	synthesizer, err := buildSynthesizer(cfg)
	if err != nil {
		return nil, err
	}

	return session.NewOrchestrator(transcriber, classifier, generator, synthesizer,
		session.WithOutputDir(cfg.OutputDir),
		session.WithResponseBudget(cfg.ResponseBudget),
		session.WithLogger(applog.Component("session")),
	), nil
}

func buildTranscriber(ctx context.Context, cfg config.Config) (stt.Provider, error) {
	whisper, err := stt.NewWhisper(
		stt.WithAPIKey(cfg.OpenAIKey),
		stt.WithLogger(applog.Component("stt")),
	)
	if err != nil {
		return nil, err
	}

	providers := []stt.Provider{whisper}
	if cfg.GoogleCredentials != "" {
		google, err := stt.NewGoogleSpeech(ctx, cfg.GoogleCredentials,
			stt.WithSampleRate(cfg.SampleRate),
			stt.WithLogger(applog.Component("stt")),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, google)
	}

	return stt.NewChainWithLogger(applog.Component("stt"), providers...)
}

func buildClassifier(cfg config.Config) (*emotion.Classifier, error) {
	var primary emotion.Provider
	if cfg.HuggingFaceKey != "" {
		remote, err := emotion.NewRemote(
			emotion.WithAPIKey(cfg.HuggingFaceKey),
			emotion.WithLogger(applog.Component("emotion")),
		)
		if err != nil {
			return nil, err
		}
		primary = remote
	}
	return emotion.NewClassifier(primary, emotion.NewLexicon(nil, nil)), nil
}

func buildGenerator(cfg config.Config) (*therapy.Generator, error) {
	content := therapy.DefaultContent()
	if cfg.ContentPath != "" {
		loaded, err := therapy.LoadContent(cfg.ContentPath)
		if err != nil {
			return nil, err
		}
		content = loaded
	}

	client, err := inference.NewClient(
		inference.WithAPIKey(cfg.OpenAIKey),
		inference.WithLogger(applog.Component("inference")),
	)
	if err != nil {
		return nil, err
	}

	opts := []therapy.GeneratorOption{
		therapy.WithPolicy(therapy.ValidationPolicy(cfg.ValidationPolicy)),
		therapy.WithContent(content),
		therapy.WithGeneratorLogger(applog.Component("therapy")),
	}
	if cfg.AnthropicKey != "" {
		validator, err := inference.NewAnthropic(
			inference.WithAPIKey(cfg.AnthropicKey),
			inference.WithLogger(applog.Component("inference")),
		)
		if err != nil {
			return nil, err
		}
		opts = append(opts, therapy.WithValidator(validator))
	}

	return therapy.NewGenerator(client, opts...), nil
}

func buildSynthesizer(cfg config.Config) (tts.Provider, error) {
	var providers []tts.Provider

	if cfg.SpeakerWav != "" {
		xtts, err := tts.NewXTTS(
			tts.WithBaseURL(cfg.XTTSURL),
			tts.WithSpeakerWav(cfg.SpeakerWav),
			tts.WithTimeout(30*time.Second),
			tts.WithLogger(applog.Component("tts")),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, xtts)
	}

	if cfg.ElevenLabsKey != "" {
		voice := cfg.TTSVoice
		if voice == "" {
			voice = tts.DefaultVoice
		}
		eleven, err := tts.NewElevenLabs(
			tts.WithAPIKey(cfg.ElevenLabsKey),
			tts.WithVoice(tts.ResolveVoice(voice)),
			tts.WithLogger(applog.Component("tts")),
		)
		if err != nil {
			return nil, err
		}
		providers = append(providers, eleven)
	}

	// ElevenLabs leads when selected; XTTS otherwise, with the other
	// configured backend as fallback.
	if cfg.TTSMode == "elevenlabs" && len(providers) == 2 {
		providers[0], providers[1] = providers[1], providers[0]
	}

	return tts.NewChainWithLogger(applog.Component("tts"), providers...)
}
