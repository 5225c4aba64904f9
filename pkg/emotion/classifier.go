package emotion

import (
	"context"
	"log/slog"
	"strings"
)

// Classifier folds the model-based provider and the lexicon fallback
// into a detection path that cannot fail. This is the type the session
// orchestrator holds: its Detect never returns an error and never
// returns an empty distribution.
type Classifier struct {
	primary  Provider // may be nil when the model failed to initialize
	fallback *Lexicon
	logger   *slog.Logger
}

// NewClassifier creates a classifier. primary may be nil, in which case
// every call goes straight to the lexicon. fallback may be nil, in which
// case the default lexicon is used.
func NewClassifier(primary Provider, fallback *Lexicon) *Classifier {
	if fallback == nil {
		fallback = NewLexicon(nil, nil)
	}
	return &Classifier{
		primary:  primary,
		fallback: fallback,
		logger:   slog.Default().With("component", "emotion.classifier"),
	}
}

// SetLogger replaces the classifier's logger.
func (c *Classifier) SetLogger(logger *slog.Logger) {
	c.logger = logger.With("component", "emotion.classifier")
}

// Detect classifies the text, degrading from the model to the lexicon
// and finally to {neutral: 1.0}. It never returns an error.
func (c *Classifier) Detect(ctx context.Context, text string) Distribution {
	if strings.TrimSpace(text) == "" {
		return Neutral()
	}

	if c.primary != nil {
		dist, err := c.primary.Detect(ctx, text)
		if err == nil && len(dist) > 0 {
			return dist
		}
		if err != nil {
			c.logger.Warn("model detection failed, using lexicon fallback", "error", err)
		}
	}

	dist, _ := c.fallback.Detect(ctx, text)
	if len(dist) == 0 {
		return Neutral()
	}
	return dist
}

// Close closes the underlying model provider, if any.
func (c *Classifier) Close() error {
	if c.primary != nil {
		return c.primary.Close()
	}
	return nil
}
