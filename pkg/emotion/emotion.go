// Package emotion provides sentiment classification for Arabic text.
//
// The primary path calls a hosted sequence-classification model; when
// the model is unavailable or errors, detection degrades to a
// deterministic lexicon scorer that can never fail. Callers that must
// not see errors should use Classifier, which folds the two paths
// together.
package emotion

import (
	"context"
	"fmt"
	"strings"
)

// Canonical emotion labels. Every provider maps its model outputs onto
// this fixed set.
const (
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
	LabelPositive = "positive"
)

// Score is a single label with its confidence in [0,1].
type Score struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Distribution is an ordered set of label scores. Order is the
// provider's registration order and is significant: Primary breaks
// confidence ties in favor of the earlier entry, which makes tie
// behavior an explicit contract rather than map iteration luck.
type Distribution []Score

// Neutral returns the degenerate distribution {neutral: 1.0} used
// whenever no signal is available.
func Neutral() Distribution {
	return Distribution{{Label: LabelNeutral, Confidence: 1.0}}
}

// Primary returns the highest-confidence score. Ties go to the entry
// registered first. The second return is false for an empty distribution.
func (d Distribution) Primary() (Score, bool) {
	if len(d) == 0 {
		return Score{}, false
	}
	best := d[0]
	for _, s := range d[1:] {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	return best, true
}

// Get returns the confidence for a label, or 0 if absent.
func (d Distribution) Get(label string) float64 {
	for _, s := range d {
		if s.Label == label {
			return s.Confidence
		}
	}
	return 0
}

// String renders the distribution for logs, e.g. "negative=0.90 neutral=0.10".
func (d Distribution) String() string {
	parts := make([]string, len(d))
	for i, s := range d {
		parts[i] = fmt.Sprintf("%s=%.2f", s.Label, s.Confidence)
	}
	return strings.Join(parts, " ")
}

// Provider detects emotion in normalized text.
type Provider interface {
	// Detect returns a label→confidence distribution for the text.
	Detect(ctx context.Context, text string) (Distribution, error)

	// Health checks provider availability.
	Health(ctx context.Context) error

	// Close releases any resources held by the provider.
	Close() error
}
