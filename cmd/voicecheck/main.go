// Command voicecheck runs the full therapy pipeline from the terminal:
// record from the microphone until silence, process the turn and play
// the spoken reply. Useful for tuning voice detection and latency
// without the web dashboard.
//
// Usage:
//
//	go run ./cmd/voicecheck
//	go run ./cmd/voicecheck --turns 5 --silence 2s
//	go run ./cmd/voicecheck --device hw:1,0
//
// Environment variables required:
//
//	OPENAI_API_KEY     - Whisper transcription and GPT replies
//	ANTHROPIC_API_KEY  - Reply validation (unless -validate=never)
//	SPEAKER_WAV        - Reference voice for XTTS cloning
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakina-labs/sakina/internal/config"
	applog "github.com/sakina-labs/sakina/internal/log"
	"github.com/sakina-labs/sakina/pkg/audio"
	"github.com/sakina-labs/sakina/pkg/emotion"
	"github.com/sakina-labs/sakina/pkg/inference"
	"github.com/sakina-labs/sakina/pkg/session"
	"github.com/sakina-labs/sakina/pkg/stt"
	"github.com/sakina-labs/sakina/pkg/therapy"
	"github.com/sakina-labs/sakina/pkg/tts"
)

func main() {
	_ = godotenv.Load()

	turns := flag.Int("turns", 0, "Number of turns to run (0 = until interrupted)")
	device := flag.String("device", "default", "ALSA capture/playback device")
	silence := flag.Duration("silence", 1500*time.Millisecond, "Trailing silence that ends a recording")
	maxRec := flag.Duration("max", 30*time.Second, "Maximum recording length")
	policy := flag.String("validate", "always", "Reply validation policy: always, crisis, never")
	debug := flag.Bool("debug", false, "Enable debug output")
	flag.Parse()

	level := "warn"
	if *debug {
		level = "debug"
	}
	applog.Init(level)

	cfg := config.DefaultConfig()
	cfg.ValidationPolicy = *policy
	cfg.LoadEnvConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ Config error: %v\n", err)
		fmt.Println("\nRequired environment variables:")
		fmt.Println("  OPENAI_API_KEY     - Whisper transcription and GPT replies")
		fmt.Println("  ANTHROPIC_API_KEY  - Reply validation")
		fmt.Println("  SPEAKER_WAV        - Reference voice for XTTS cloning")
		os.Exit(1)
	}

	audioCfg := audio.DefaultConfig()
	audioCfg.CaptureDevice = *device
	audioCfg.PlaybackDevice = *device
	audioCfg.SilenceDuration = *silence
	audioCfg.MaxDuration = *maxRec

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	orchestrator, err := buildOrchestrator(ctx, cfg)
	if err != nil {
		fmt.Printf("❌ Failed to build pipeline: %v\n", err)
		os.Exit(1)
	}

	dev, err := audio.NewALSADevice(audioCfg, applog.Component("audio"))
	if err != nil {
		fmt.Printf("❌ Audio device error: %v\n", err)
		os.Exit(1)
	}
	defer dev.Close()

	recorder := audio.NewRecorder(dev, audioCfg, applog.Component("audio"))
	player := audio.NewPlayer(dev, applog.Component("audio"))

	fmt.Println("🎤 Sakina Voice Check")
	fmt.Println("=====================")
	fmt.Printf("Device: %s   Silence stop: %s   Max: %s\n\n", *device, *silence, *maxRec)
	fmt.Println("Speak after the prompt. Ctrl+C to quit.")

	var history session.History
	for turn := 1; *turns == 0 || turn <= *turns; turn++ {
		fmt.Printf("\n[%d] 🎙  Listening...\n", turn)

		wav, err := recorder.Record(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			fmt.Println("\n👋 Done.")
			return
		case errors.Is(err, audio.ErrNoSpeech):
			fmt.Println("    (no speech detected, try again)")
			continue
		case err != nil:
			fmt.Printf("❌ Recording failed: %v\n", err)
			continue
		}

		fmt.Println("    ⏳ Processing...")
		result := orchestrator.ProcessTurn(ctx, wav, history)
		if !result.Success() {
			fmt.Printf("❌ %s stage failed: %s\n", result.Err.Stage, result.Err.Message)
			continue
		}

		fmt.Printf("    📝 You: %s\n", result.Transcription)
		if primary, ok := result.Emotions.Primary(); ok {
			fmt.Printf("    💭 Emotion: %s (%.2f)\n", primary.Label, primary.Confidence)
		}
		if result.Crisis {
			fmt.Println("    ⚠️  Crisis indicators detected")
		}
		fmt.Printf("    💬 Sakina: %s\n", result.ResponseText)
		fmt.Printf("    ⏱  %s", result.ProcessingTime.Round(10*time.Millisecond))
		if result.SlowWarning {
			fmt.Print("  (slow)")
		}
		fmt.Println()

		reply, err := os.ReadFile(result.AudioPath)
		if err != nil {
			fmt.Printf("❌ Could not read reply audio: %v\n", err)
			continue
		}
		fmt.Println("    🔊 Speaking...")
		if err := player.Play(ctx, reply); err != nil && !errors.Is(err, context.Canceled) {
			fmt.Printf("❌ Playback failed: %v\n", err)
		}

		history = append(history, session.NewTurn(result.Transcription, result.Emotions, result.ResponseText))
	}

	fmt.Println("\n👋 Done.")
}

// buildOrchestrator wires the same pipeline as cmd/sakina, minus the
// web layer.
func buildOrchestrator(ctx context.Context, cfg config.Config) (*session.Orchestrator, error) {
	whisper, err := stt.NewWhisper(stt.WithAPIKey(cfg.OpenAIKey))
	if err != nil {
		return nil, err
	}
	transcriber := stt.Provider(whisper)
	if cfg.GoogleCredentials != "" {
		google, err := stt.NewGoogleSpeech(ctx, cfg.GoogleCredentials, stt.WithSampleRate(cfg.SampleRate))
		if err != nil {
			return nil, err
		}
		transcriber, err = stt.NewChain(whisper, google)
		if err != nil {
			return nil, err
		}
	}

	var primary emotion.Provider
	if cfg.HuggingFaceKey != "" {
		remote, err := emotion.NewRemote(emotion.WithAPIKey(cfg.HuggingFaceKey))
		if err != nil {
			return nil, err
		}
		primary = remote
	}
	classifier := emotion.NewClassifier(primary, emotion.NewLexicon(nil, nil))

	client, err := inference.NewClient(inference.WithAPIKey(cfg.OpenAIKey))
	if err != nil {
		return nil, err
	}
	opts := []therapy.GeneratorOption{therapy.WithPolicy(therapy.ValidationPolicy(cfg.ValidationPolicy))}
	if cfg.AnthropicKey != "" {
		validator, err := inference.NewAnthropic(inference.WithAPIKey(cfg.AnthropicKey))
		if err != nil {
			return nil, err
		}
		opts = append(opts, therapy.WithValidator(validator))
	}
	generator := therapy.NewGenerator(client, opts...)

	synthesizer, err := tts.NewXTTS(
		tts.WithBaseURL(cfg.XTTSURL),
		tts.WithSpeakerWav(cfg.SpeakerWav),
	)
	if err != nil {
		return nil, err
	}

	return session.NewOrchestrator(transcriber, classifier, generator, synthesizer,
		session.WithOutputDir(cfg.OutputDir),
		session.WithResponseBudget(cfg.ResponseBudget),
	), nil
}
