package session

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sakina-labs/sakina/pkg/arabic"
	"github.com/sakina-labs/sakina/pkg/audio"
	"github.com/sakina-labs/sakina/pkg/emotion"
	"github.com/sakina-labs/sakina/pkg/stt"
	"github.com/sakina-labs/sakina/pkg/therapy"
	"github.com/sakina-labs/sakina/pkg/tts"
)

// DefaultResponseBudget is the soft processing-time threshold. A turn
// that takes longer still succeeds; the result just carries SlowWarning.
const DefaultResponseBudget = 20 * time.Second

// Orchestrator drives one voice turn through the four pipeline stages
// in fixed order: transcribe, detect emotion, generate, synthesize.
//
// It holds no cross-call state: every ProcessTurn call is a function of
// (audio, history) to Result, modulo the collaborators' own clients,
// which are constructed once at startup and injected here.
type Orchestrator struct {
	stt       stt.Provider
	emotions  *emotion.Classifier
	generator *therapy.Generator
	tts       tts.Provider

	outputDir string
	budget    time.Duration
	logger    *slog.Logger
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithOutputDir sets the directory for synthesized reply audio.
// Default "outputs".
func WithOutputDir(dir string) OrchestratorOption {
	return func(o *Orchestrator) { o.outputDir = dir }
}

// WithResponseBudget sets the slow-turn warning threshold.
// Zero disables the warning.
func WithResponseBudget(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.budget = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l.With("component", "session.orchestrator") }
}

// NewOrchestrator wires the four collaborators into a pipeline.
func NewOrchestrator(sttProvider stt.Provider, classifier *emotion.Classifier, generator *therapy.Generator, ttsProvider tts.Provider, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		stt:       sttProvider,
		emotions:  classifier,
		generator: generator,
		tts:       ttsProvider,
		outputDir: "outputs",
		budget:    DefaultResponseBudget,
		logger:    slog.Default().With("component", "session.orchestrator"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessTurn runs one turn through the pipeline.
//
// It never returns a nil result and never panics outward: collaborator
// panics and errors are converted into failure results with the stage
// tagged. ProcessingTime is populated on every return path.
func (o *Orchestrator) ProcessTurn(ctx context.Context, audioIn []byte, history History) (result *Result) {
	start := time.Now()
	result = &Result{}

	defer func() {
		if rec := recover(); rec != nil {
			result.Err = &StageError{
				Stage:   StageInternal,
				Message: fmt.Sprintf("recovered: %v", rec),
			}
			o.logger.Error("pipeline panic recovered", "panic", rec)
		}

		result.ProcessingTime = time.Since(start)

		if result.Success() && o.budget > 0 && result.ProcessingTime > o.budget {
			result.SlowWarning = true
			o.logger.Warn("turn exceeded response budget",
				"elapsed", result.ProcessingTime,
				"budget", o.budget,
			)
		}
	}()

	// Stage 1: transcribe.
	tr, err := o.stt.Transcribe(ctx, audioIn)
	if err != nil {
		o.logger.Warn("transcription failed", "error", err)
		return result.fail(StageTranscribe, err.Error())
	}
	text := strings.TrimSpace(tr.Text)
	if text == "" {
		return result.fail(StageTranscribe, "transcription returned no text")
	}
	result.Transcription = text

	if err := ctx.Err(); err != nil {
		return result.fail(StageInternal, err.Error())
	}

	// Stage 2: normalize + detect emotion. Cannot fail; the classifier
	// degrades to its lexicon and finally to {neutral: 1.0}.
	result.Emotions = o.emotions.Detect(ctx, arabic.Normalize(text))

	// Stage 3: generate. The generator absorbs provider failures down
	// to a canned reply, so only cancellation surfaces here.
	reply := o.generator.Generate(ctx, text, history.Exchanges(), result.Emotions)
	if err := ctx.Err(); err != nil {
		return result.fail(StageInternal, err.Error())
	}
	if reply == nil || reply.Text == "" {
		return result.fail(StageGenerate, "response generation failed")
	}
	result.ResponseText = reply.Text
	result.Crisis = reply.Crisis
	result.Validated = reply.Validated
	result.Source = reply.Source

	// Stage 4: synthesize and persist.
	audioOut, err := o.tts.Synthesize(ctx, reply.Text)
	if err != nil {
		o.logger.Warn("synthesis failed", "error", err)
		return result.fail(StageSynthesize, err.Error())
	}

	path, err := o.writeAudio(audioOut)
	if err != nil {
		return result.fail(StageSynthesize, err.Error())
	}
	result.AudioPath = path
	result.AudioDuration = audioOut.Duration

	o.logger.Info("turn complete",
		"chars_in", len(text),
		"chars_out", len(reply.Text),
		"crisis", reply.Crisis,
		"source", reply.Source,
		"elapsed", time.Since(start),
	)

	return result
}

// writeAudio persists the reply audio under a fresh uuid filename,
// wrapping raw PCM in a WAV container when needed.
func (o *Orchestrator) writeAudio(res *tts.AudioResult) (string, error) {
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	data := res.Audio
	if res.Format.Encoding != tts.EncodingWAV {
		data = audio.EncodeWAV(data, res.Format.SampleRate, res.Format.Channels)
	}

	path := filepath.Join(o.outputDir, uuid.New().String()+".wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	return path, nil
}
