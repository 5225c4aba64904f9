package emotion

import (
	"context"
	"strings"
)

// Default Arabic sentiment lexicons for the rule-based fallback.
var (
	DefaultPositiveWords = []string{"سعيد", "فرحان", "راضي", "ممتاز", "جيد", "أحب"}
	DefaultNegativeWords = []string{"حزين", "غاضب", "خائف", "قلق", "متوتر", "مكتئب"}
)

// neutralFloor is the constant neutral weight added whenever any
// sentiment keyword is found.
const neutralFloor = 0.1

// Lexicon is a deterministic rule-based sentiment scorer. It counts
// occurrences of fixed positive and negative keyword sets and never
// returns an error, which makes it the fallback of last resort when the
// model-based provider is down.
type Lexicon struct {
	positive []string
	negative []string
}

// NewLexicon creates a lexicon scorer. Empty word lists fall back to
// the built-in Arabic defaults.
func NewLexicon(positive, negative []string) *Lexicon {
	if len(positive) == 0 {
		positive = DefaultPositiveWords
	}
	if len(negative) == 0 {
		negative = DefaultNegativeWords
	}
	return &Lexicon{positive: positive, negative: negative}
}

// Detect scores the text by keyword occurrence. If no keyword from
// either set is present the result is {neutral: 1.0}; otherwise the
// positive and negative fractions of the total keyword count, plus a
// constant small neutral weight. The error return is always nil.
func (l *Lexicon) Detect(ctx context.Context, text string) (Distribution, error) {
	lower := strings.ToLower(text)

	var posCount, negCount int
	for _, w := range l.positive {
		if strings.Contains(lower, w) {
			posCount++
		}
	}
	for _, w := range l.negative {
		if strings.Contains(lower, w) {
			negCount++
		}
	}

	total := posCount + negCount
	if total == 0 {
		return Neutral(), nil
	}

	return Distribution{
		{Label: LabelPositive, Confidence: float64(posCount) / float64(total)},
		{Label: LabelNegative, Confidence: float64(negCount) / float64(total)},
		{Label: LabelNeutral, Confidence: neutralFloor},
	}, nil
}

// Health always reports healthy; the lexicon has no dependencies.
func (l *Lexicon) Health(ctx context.Context) error { return nil }

// Close is a no-op.
func (l *Lexicon) Close() error { return nil }

// Verify Lexicon implements Provider at compile time.
var _ Provider = (*Lexicon)(nil)
