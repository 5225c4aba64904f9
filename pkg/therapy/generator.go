package therapy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakina-labs/sakina/pkg/arabic"
	"github.com/sakina-labs/sakina/pkg/emotion"
	"github.com/sakina-labs/sakina/pkg/inference"
)

// ValidationPolicy controls when the secondary model reviews the
// primary reply.
type ValidationPolicy string

const (
	// ValidateAlways runs the validator on every primary reply.
	ValidateAlways ValidationPolicy = "always"

	// ValidateOnCrisis runs the validator only when crisis keywords
	// were detected.
	ValidateOnCrisis ValidationPolicy = "crisis"

	// ValidateNever skips validation entirely.
	ValidateNever ValidationPolicy = "never"
)

// Source identifies which generation path produced a reply.
type Source string

const (
	SourcePrimary   Source = "primary"   // primary model, possibly validator-approved
	SourceValidator Source = "validator" // validator rewrote the primary reply
	SourceFallback  Source = "fallback"  // secondary model generated alone
	SourceCanned    Source = "canned"    // fixed last-resort reply
)

// Reply is the outcome of one generation call.
type Reply struct {
	// Text is the therapeutic reply. Never empty.
	Text string

	// Crisis reports whether crisis keywords were detected in the input.
	Crisis bool

	// Validated reports whether the secondary model reviewed the reply.
	Validated bool

	// Source identifies the generation path that produced Text.
	Source Source

	// Emotion is the primary emotion the prompt was built around.
	Emotion emotion.Score
}

// Generator produces therapeutic replies via the dual-model protocol.
type Generator struct {
	primary   inference.Provider
	validator inference.Provider // may be nil
	detector  *arabic.Detector
	content   *Content
	policy    ValidationPolicy
	maxTokens int
	logger    *slog.Logger
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithValidator sets the secondary validation/fallback provider.
func WithValidator(p inference.Provider) GeneratorOption {
	return func(g *Generator) { g.validator = p }
}

// WithPolicy sets the validation policy. Default is ValidateAlways.
func WithPolicy(p ValidationPolicy) GeneratorOption {
	return func(g *Generator) { g.policy = p }
}

// WithContent replaces the default therapeutic content.
func WithContent(c *Content) GeneratorOption {
	return func(g *Generator) {
		g.content = c
		g.detector = arabic.NewDetector(c.CrisisKeywords)
	}
}

// WithMaxTokens caps reply length. Default is 300.
func WithMaxTokens(n int) GeneratorOption {
	return func(g *Generator) { g.maxTokens = n }
}

// WithGeneratorLogger sets the structured logger.
func WithGeneratorLogger(l *slog.Logger) GeneratorOption {
	return func(g *Generator) { g.logger = l.With("component", "therapy.generator") }
}

// NewGenerator creates a Generator around the primary provider.
func NewGenerator(primary inference.Provider, opts ...GeneratorOption) *Generator {
	content := DefaultContent()
	g := &Generator{
		primary:   primary,
		detector:  arabic.NewDetector(content.CrisisKeywords),
		content:   content,
		policy:    ValidateAlways,
		maxTokens: 300,
		logger:    slog.Default().With("component", "therapy.generator"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Content returns the generator's therapeutic content.
func (g *Generator) Content() *Content { return g.content }

// Detector returns the crisis keyword detector.
func (g *Generator) Detector() *arabic.Detector { return g.detector }

// Generate produces a therapeutic reply for the user text. It degrades
// through three paths (primary with optional validation, secondary
// alone, canned) and always returns a non-nil reply with non-empty text.
func (g *Generator) Generate(ctx context.Context, text string, history []Exchange, emotions emotion.Distribution) *Reply {
	isCrisis := g.detector.Detect(text)

	primary, ok := emotions.Primary()
	if !ok {
		primary = emotion.Score{Label: emotion.LabelNeutral, Confidence: 1.0}
	}

	if isCrisis {
		g.logger.Warn("crisis keywords detected")
	}

	reply := g.generatePrimary(ctx, text, history, primary, isCrisis)
	if reply == nil {
		reply = g.generateFallback(ctx, text, history, primary, isCrisis)
	}
	if reply == nil {
		reply = g.canned(isCrisis, primary)
	}

	g.logger.Info("reply generated",
		"source", reply.Source,
		"crisis", reply.Crisis,
		"validated", reply.Validated,
		"emotion", primary.Label,
	)

	return reply
}

// generatePrimary runs the primary model and, per policy, the validator.
// Returns nil when the primary model fails or produces empty text.
func (g *Generator) generatePrimary(ctx context.Context, text string, history []Exchange, primary emotion.Score, isCrisis bool) *Reply {
	systemPrompt := buildSystemPrompt(g.content, primary, isCrisis, history)

	resp, err := g.primary.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{
			inference.NewSystemMessage(systemPrompt),
			inference.NewUserMessage(text),
		},
		MaxTokens:   g.maxTokens,
		Temperature: 0.7,
	})
	if err != nil {
		g.logger.Warn("primary generation failed", "error", err)
		return nil
	}

	replyText := strings.TrimSpace(resp.Message.Content)
	if replyText == "" {
		g.logger.Warn("primary generation returned empty reply")
		return nil
	}

	reply := &Reply{
		Text:    replyText,
		Crisis:  isCrisis,
		Source:  SourcePrimary,
		Emotion: primary,
	}

	if g.shouldValidate(isCrisis) {
		g.validate(ctx, reply, text)
	}

	return reply
}

func (g *Generator) shouldValidate(isCrisis bool) bool {
	if g.validator == nil {
		return false
	}
	switch g.policy {
	case ValidateAlways:
		return true
	case ValidateOnCrisis:
		return isCrisis
	default:
		return false
	}
}

// validate asks the secondary model to approve or rewrite reply.Text in
// place. A validator failure leaves the primary reply unvalidated.
func (g *Generator) validate(ctx context.Context, reply *Reply, userText string) {
	resp, err := g.validator.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{
			inference.NewUserMessage(buildValidationPrompt(reply.Text, userText, reply.Crisis)),
		},
		MaxTokens: g.maxTokens + 100,
	})
	if err != nil {
		g.logger.Warn("validation failed, keeping primary reply", "error", err)
		return
	}

	verdict := strings.TrimSpace(resp.Message.Content)
	if verdict == "" {
		return
	}

	reply.Validated = true
	if strings.HasPrefix(verdict, ApprovalToken) {
		return
	}

	// The validator supplied a rewrite.
	reply.Text = verdict
	reply.Source = SourceValidator
	g.logger.Info("validator rewrote reply")
}

// generateFallback runs the secondary model standalone, used when the
// primary path failed outright. Returns nil on failure.
func (g *Generator) generateFallback(ctx context.Context, text string, history []Exchange, primary emotion.Score, isCrisis bool) *Reply {
	if g.validator == nil {
		return nil
	}

	resp, err := g.validator.Chat(ctx, &inference.ChatRequest{
		Messages: []inference.Message{
			inference.NewUserMessage(buildFallbackPrompt(g.content, text, primary, isCrisis, history)),
		},
		MaxTokens: g.maxTokens,
	})
	if err != nil {
		g.logger.Warn("fallback generation failed", "error", err)
		return nil
	}

	replyText := strings.TrimSpace(resp.Message.Content)
	if replyText == "" {
		return nil
	}

	return &Reply{
		Text:    replyText,
		Crisis:  isCrisis,
		Source:  SourceFallback,
		Emotion: primary,
	}
}

// canned returns the fixed last-resort reply. This path never fails.
func (g *Generator) canned(isCrisis bool, primary emotion.Score) *Reply {
	text := g.content.CannedGenericReply
	if isCrisis {
		text = g.content.CannedCrisisReply
	}
	return &Reply{
		Text:    text,
		Crisis:  isCrisis,
		Source:  SourceCanned,
		Emotion: primary,
	}
}
