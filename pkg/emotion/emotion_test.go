package emotion

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestDistributionPrimary(t *testing.T) {
	t.Run("single maximal entry", func(t *testing.T) {
		d := Distribution{
			{Label: LabelNegative, Confidence: 0.9},
			{Label: LabelNeutral, Confidence: 0.1},
		}
		primary, ok := d.Primary()
		if !ok {
			t.Fatal("expected a primary emotion")
		}
		if primary.Label != LabelNegative {
			t.Errorf("expected negative, got %s", primary.Label)
		}
	})

	t.Run("tie goes to first registered", func(t *testing.T) {
		d := Distribution{
			{Label: LabelNegative, Confidence: 0.5},
			{Label: LabelPositive, Confidence: 0.5},
		}
		primary, _ := d.Primary()
		if primary.Label != LabelNegative {
			t.Errorf("tie should favor first entry, got %s", primary.Label)
		}
	})

	t.Run("empty distribution", func(t *testing.T) {
		var d Distribution
		if _, ok := d.Primary(); ok {
			t.Error("empty distribution should not have a primary")
		}
	})
}

func TestLexicon(t *testing.T) {
	lex := NewLexicon(nil, nil)
	ctx := context.Background()

	t.Run("no keywords yields neutral", func(t *testing.T) {
		d, err := lex.Detect(ctx, "الطقس اليوم معتدل")
		if err != nil {
			t.Fatalf("lexicon must never error: %v", err)
		}
		if len(d) != 1 || d[0].Label != LabelNeutral || d[0].Confidence != 1.0 {
			t.Errorf("expected {neutral: 1.0}, got %s", d)
		}
	})

	t.Run("negative keywords dominate", func(t *testing.T) {
		d, _ := lex.Detect(ctx, "أنا حزين و قلق جداً")
		if got := d.Get(LabelNegative); got != 1.0 {
			t.Errorf("expected negative fraction 1.0, got %.2f", got)
		}
		if got := d.Get(LabelPositive); got != 0 {
			t.Errorf("expected positive fraction 0, got %.2f", got)
		}
		if got := d.Get(LabelNeutral); got != neutralFloor {
			t.Errorf("expected neutral floor %.2f, got %.2f", neutralFloor, got)
		}
	})

	t.Run("mixed keywords split fractionally", func(t *testing.T) {
		d, _ := lex.Detect(ctx, "سعيد لكن قلق")
		if got := d.Get(LabelPositive); math.Abs(got-0.5) > 1e-9 {
			t.Errorf("expected positive 0.5, got %.2f", got)
		}
		if got := d.Get(LabelNegative); math.Abs(got-0.5) > 1e-9 {
			t.Errorf("expected negative 0.5, got %.2f", got)
		}
	})

	t.Run("empty text yields neutral", func(t *testing.T) {
		d, err := lex.Detect(ctx, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Get(LabelNeutral) != 1.0 {
			t.Errorf("expected neutral, got %s", d)
		}
	})
}

func TestClassifierFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("model result preferred", func(t *testing.T) {
		mock := NewMock()
		mock.DetectFunc = func(ctx context.Context, text string) (Distribution, error) {
			return Distribution{
				{Label: LabelNegative, Confidence: 0.9},
				{Label: LabelNeutral, Confidence: 0.1},
			}, nil
		}
		c := NewClassifier(mock, nil)

		d := c.Detect(ctx, "أشعر بالحزن الشديد")
		primary, _ := d.Primary()
		if primary.Label != LabelNegative {
			t.Errorf("expected model result, got %s", d)
		}
	})

	t.Run("model error falls back to lexicon", func(t *testing.T) {
		c := NewClassifier(WithError(errors.New("model down")), nil)

		d := c.Detect(ctx, "أنا حزين")
		if d.Get(LabelNegative) != 1.0 {
			t.Errorf("expected lexicon fallback to score negative, got %s", d)
		}
	})

	t.Run("nil provider uses lexicon directly", func(t *testing.T) {
		c := NewClassifier(nil, nil)

		d := c.Detect(ctx, "كلام عادي")
		if d.Get(LabelNeutral) != 1.0 {
			t.Errorf("expected neutral, got %s", d)
		}
	})

	t.Run("empty text is neutral without any provider call", func(t *testing.T) {
		mock := NewMock()
		c := NewClassifier(mock, nil)

		d := c.Detect(ctx, "   ")
		if d.Get(LabelNeutral) != 1.0 {
			t.Errorf("expected neutral, got %s", d)
		}
		if len(mock.Calls()) != 0 {
			t.Error("provider should not be called for empty text")
		}
	})
}

func TestCanonicalLabel(t *testing.T) {
	cases := map[string]string{
		"negative": LabelNegative,
		"NEGATIVE": LabelNegative,
		"LABEL_0":  LabelNegative,
		"neu":      LabelNeutral,
		"LABEL_2":  LabelPositive,
		"pos":      LabelPositive,
	}
	for in, want := range cases {
		got, ok := canonicalLabel(in)
		if !ok || got != want {
			t.Errorf("canonicalLabel(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := canonicalLabel("surprise"); ok {
		t.Error("unknown label should not map")
	}
}

func TestMapResultsOrder(t *testing.T) {
	dist := mapResults([]classification{
		{Label: "positive", Score: 0.2},
		{Label: "negative", Score: 0.7},
		{Label: "neutral", Score: 0.1},
	})

	if len(dist) != 3 {
		t.Fatalf("expected 3 scores, got %d", len(dist))
	}
	// Registration order is fixed regardless of API response order.
	if dist[0].Label != LabelNegative || dist[1].Label != LabelNeutral || dist[2].Label != LabelPositive {
		t.Errorf("unexpected order: %s", dist)
	}
}
