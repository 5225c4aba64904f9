package therapy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakina-labs/sakina/pkg/emotion"
	"github.com/sakina-labs/sakina/pkg/inference"
)

func negativeDistribution() emotion.Distribution {
	return emotion.Distribution{
		{Label: emotion.LabelNegative, Confidence: 0.9},
		{Label: emotion.LabelNeutral, Confidence: 0.1},
	}
}

func replyMock(text string) *inference.Mock {
	m := inference.NewMock()
	m.ChatFunc = func(ctx context.Context, req *inference.ChatRequest) (*inference.ChatResponse, error) {
		return &inference.ChatResponse{Message: inference.NewAssistantMessage(text)}, nil
	}
	return m
}

func TestGeneratePrimaryApproved(t *testing.T) {
	ctx := context.Background()

	primary := replyMock("أنا هنا معك، خذ نفساً عميقاً.")
	validator := replyMock(ApprovalToken)

	g := NewGenerator(primary, WithValidator(validator))
	reply := g.Generate(ctx, "أشعر بالحزن الشديد", nil, negativeDistribution())

	if reply.Text != "أنا هنا معك، خذ نفساً عميقاً." {
		t.Errorf("expected approved primary reply, got %q", reply.Text)
	}
	if reply.Source != SourcePrimary {
		t.Errorf("expected primary source, got %s", reply.Source)
	}
	if !reply.Validated {
		t.Error("expected reply to be marked validated")
	}
	if reply.Crisis {
		t.Error("sadness alone should not be a crisis")
	}
}

func TestGenerateValidatorRewrite(t *testing.T) {
	ctx := context.Background()

	primary := replyMock("draft reply")
	validator := replyMock("نسخة محسّنة باللهجة العمانية")

	g := NewGenerator(primary, WithValidator(validator))
	reply := g.Generate(ctx, "أشعر بالقلق", nil, negativeDistribution())

	if reply.Text != "نسخة محسّنة باللهجة العمانية" {
		t.Errorf("expected validator rewrite, got %q", reply.Text)
	}
	if reply.Source != SourceValidator {
		t.Errorf("expected validator source, got %s", reply.Source)
	}
}

func TestGenerateValidatorFailureKeepsPrimary(t *testing.T) {
	ctx := context.Background()

	primary := replyMock("primary reply")
	validator := inference.WithError(errors.New("validator down"))

	g := NewGenerator(primary, WithValidator(validator))
	reply := g.Generate(ctx, "أشعر بالحزن", nil, negativeDistribution())

	if reply.Text != "primary reply" {
		t.Errorf("expected unvalidated primary reply, got %q", reply.Text)
	}
	if reply.Validated {
		t.Error("reply should not be marked validated when validator failed")
	}
}

func TestGenerateFallbackPath(t *testing.T) {
	ctx := context.Background()

	primary := inference.WithError(errors.New("primary down"))
	validator := replyMock("رد احتياطي من النموذج الثاني")

	g := NewGenerator(primary, WithValidator(validator))
	reply := g.Generate(ctx, "أشعر بالحزن", nil, negativeDistribution())

	if reply.Source != SourceFallback {
		t.Errorf("expected fallback source, got %s", reply.Source)
	}
	if reply.Text != "رد احتياطي من النموذج الثاني" {
		t.Errorf("unexpected fallback text: %q", reply.Text)
	}
}

func TestGenerateCannedReplies(t *testing.T) {
	ctx := context.Background()
	down := errors.New("all models down")

	t.Run("generic canned when not crisis", func(t *testing.T) {
		g := NewGenerator(inference.WithError(down), WithValidator(inference.WithError(down)))
		reply := g.Generate(ctx, "أشعر بالحزن", nil, negativeDistribution())

		if reply.Source != SourceCanned {
			t.Fatalf("expected canned source, got %s", reply.Source)
		}
		if reply.Text != DefaultContent().CannedGenericReply {
			t.Errorf("expected generic canned reply, got %q", reply.Text)
		}
		if reply.Crisis {
			t.Error("expected non-crisis reply")
		}
	})

	t.Run("crisis canned when crisis detected", func(t *testing.T) {
		g := NewGenerator(inference.WithError(down), WithValidator(inference.WithError(down)))
		reply := g.Generate(ctx, "أريد أن أموت", nil, negativeDistribution())

		if reply.Source != SourceCanned {
			t.Fatalf("expected canned source, got %s", reply.Source)
		}
		if !reply.Crisis {
			t.Error("expected crisis flag")
		}
		if !strings.Contains(reply.Text, EmergencyLine) {
			t.Errorf("crisis canned reply must mention %s, got %q", EmergencyLine, reply.Text)
		}
	})

	t.Run("no validator still produces canned reply", func(t *testing.T) {
		g := NewGenerator(inference.WithError(down))
		reply := g.Generate(ctx, "كلام عادي", nil, nil)

		if reply == nil || reply.Text == "" {
			t.Fatal("Generate must never return an empty reply")
		}
		if reply.Source != SourceCanned {
			t.Errorf("expected canned source, got %s", reply.Source)
		}
	})
}

func TestSystemPromptContents(t *testing.T) {
	ctx := context.Background()
	content := DefaultContent()

	t.Run("negative guidance without crisis block", func(t *testing.T) {
		primary := replyMock("رد")
		g := NewGenerator(primary, WithPolicy(ValidateNever))

		g.Generate(ctx, "أشعر بالحزن الشديد", nil, negativeDistribution())

		req := primary.LastRequest()
		if req == nil {
			t.Fatal("primary provider was not called")
		}
		system := req.Messages[0].Content
		if !strings.Contains(system, content.Guidance[emotion.LabelNegative]) {
			t.Error("system prompt missing negative-emotion guidance")
		}
		if strings.Contains(system, "CRISIS PROTOCOL") {
			t.Error("system prompt must not contain the crisis block for non-crisis input")
		}
		if !strings.Contains(system, noHistoryMarker) {
			t.Error("empty history must render the no-history marker")
		}
	})

	t.Run("crisis block with emergency number", func(t *testing.T) {
		primary := replyMock("رد")
		g := NewGenerator(primary, WithPolicy(ValidateNever))

		g.Generate(ctx, "أريد أن أموت", nil, negativeDistribution())

		system := primary.LastRequest().Messages[0].Content
		if !strings.Contains(system, "CRISIS PROTOCOL") {
			t.Error("system prompt missing crisis protocol block")
		}
		if !strings.Contains(system, EmergencyLine) {
			t.Errorf("crisis block must mention %s", EmergencyLine)
		}
	})

	t.Run("history rendered as alternating lines", func(t *testing.T) {
		primary := replyMock("رد")
		g := NewGenerator(primary, WithPolicy(ValidateNever))

		history := []Exchange{
			{User: "مرحبا", Therapist: "أهلاً بك"},
			{User: "أنا متعب", Therapist: "حدثني أكثر"},
		}
		g.Generate(ctx, "أكملت يومي", nil, nil)
		g.Generate(ctx, "أكملت يومي", history, nil)

		system := primary.LastRequest().Messages[0].Content
		if !strings.Contains(system, "المراجع: مرحبا") || !strings.Contains(system, "المعالج: حدثني أكثر") {
			t.Errorf("history not rendered: %q", system)
		}
		if strings.Contains(system, noHistoryMarker) {
			t.Error("no-history marker must not appear when history exists")
		}
	})

	t.Run("emotion line carries label and confidence", func(t *testing.T) {
		primary := replyMock("رد")
		g := NewGenerator(primary, WithPolicy(ValidateNever))

		g.Generate(ctx, "نص", nil, negativeDistribution())

		system := primary.LastRequest().Messages[0].Content
		if !strings.Contains(system, "Current emotion: negative (confidence: 0.90)") {
			t.Errorf("emotion line missing or malformed: %q", system)
		}
	})
}

func TestValidationPolicies(t *testing.T) {
	ctx := context.Background()

	t.Run("crisis-only policy skips validation for ordinary turns", func(t *testing.T) {
		primary := replyMock("رد")
		validator := replyMock(ApprovalToken)
		g := NewGenerator(primary, WithValidator(validator), WithPolicy(ValidateOnCrisis))

		g.Generate(ctx, "يوم عادي", nil, nil)
		if validator.CallCount("Chat") != 0 {
			t.Error("validator should not run for non-crisis turns under ValidateOnCrisis")
		}

		g.Generate(ctx, "أريد أن أموت", nil, nil)
		if validator.CallCount("Chat") != 1 {
			t.Error("validator should run for crisis turns under ValidateOnCrisis")
		}
	})

	t.Run("never policy skips validation entirely", func(t *testing.T) {
		primary := replyMock("رد")
		validator := replyMock(ApprovalToken)
		g := NewGenerator(primary, WithValidator(validator), WithPolicy(ValidateNever))

		g.Generate(ctx, "أريد أن أموت", nil, nil)
		if validator.CallCount("Chat") != 0 {
			t.Error("validator should never run under ValidateNever")
		}
	})
}
