// Package therapy generates culturally-tailored therapeutic replies.
//
// Generation is a dual-model protocol: a primary chat model produces the
// reply from a deterministic system prompt, and a secondary model can
// validate it for cultural and clinical appropriateness, approving the
// text or rewriting it. When the primary model is down the secondary
// generates alone, and when everything fails a fixed canned reply is
// returned, so Generate never comes back empty-handed.
package therapy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sakina-labs/sakina/pkg/arabic"
	"github.com/sakina-labs/sakina/pkg/emotion"
)

// ApprovalToken is the prefix the validator uses to accept the primary
// reply unchanged. Any other response is treated as a rewrite.
const ApprovalToken = "APPROVED"

// EmergencyLine is the Oman mental health helpline mentioned by the
// crisis protocol and the crisis canned reply.
const EmergencyLine = "16262"

// Content holds the fixed therapeutic text configuration: the persona,
// per-emotion guidance, the crisis protocol, canned fallback replies,
// and the keyword lists. It is loadable from YAML so deployments can
// localize it without a rebuild, with compiled-in defaults.
type Content struct {
	// Persona is the fixed cultural/therapeutic system-prompt preamble.
	Persona string `yaml:"persona"`

	// Guidance maps emotion labels to prompt guidance text.
	Guidance map[string]string `yaml:"guidance"`

	// CrisisProtocol is appended to the system prompt when crisis
	// keywords are detected.
	CrisisProtocol string `yaml:"crisis_protocol"`

	// CannedCrisisReply is the last-resort reply for crisis turns.
	CannedCrisisReply string `yaml:"canned_crisis_reply"`

	// CannedGenericReply is the last-resort reply for ordinary turns.
	CannedGenericReply string `yaml:"canned_generic_reply"`

	// CrisisKeywords override arabic.DefaultCrisisKeywords when set.
	CrisisKeywords []string `yaml:"crisis_keywords"`

	// PositiveWords and NegativeWords feed the emotion lexicon fallback.
	PositiveWords []string `yaml:"positive_words"`
	NegativeWords []string `yaml:"negative_words"`
}

// DefaultContent returns the built-in Omani therapeutic content.
func DefaultContent() *Content {
	return &Content{
		Persona: `You are a professional AI therapist specializing in Omani/Gulf Arabic culture.

Key principles:
- Respond ONLY in Omani dialect Arabic
- Integrate Islamic values and family-centered approach
- Use cognitive-behavioral therapy techniques
- Be empathetic and culturally sensitive
- Keep responses concise (2-3 sentences max)`,

		Guidance: map[string]string{
			emotion.LabelNegative: "Show deep empathy. Acknowledge their pain. Offer hope and practical coping strategies.",
			emotion.LabelPositive: "Celebrate their positive feelings. Encourage gratitude and continued growth.",
			emotion.LabelNeutral:  "Gently explore their feelings. Encourage self-reflection and emotional awareness.",
		},

		CrisisProtocol: `CRISIS PROTOCOL:
- Acknowledge their pain immediately
- Provide immediate safety resources
- Encourage professional help
- Mention emergency contacts (` + EmergencyLine + ` - Oman Mental Health)`,

		CannedCrisisReply: "أتفهم أنك تمر بوقت صعب جداً. من المهم أن تطلب المساعدة الفورية. " +
			"يرجى الاتصال بخط المساعدة النفسية في عمان على الرقم " + EmergencyLine + " أو التوجه إلى أقرب مستشفى.",

		CannedGenericReply: "أعتذر، أواجه صعوبة تقنية الآن. لكن أريدك أن تعرف أنني هنا لمساعدتك. " +
			"كيف يمكنني أن أدعمك اليوم؟",

		CrisisKeywords: arabic.DefaultCrisisKeywords,
		PositiveWords:  emotion.DefaultPositiveWords,
		NegativeWords:  emotion.DefaultNegativeWords,
	}
}

// LoadContent reads content from a YAML file. Fields left empty in the
// file keep their defaults.
func LoadContent(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("therapy: read content file: %w", err)
	}

	content := DefaultContent()
	if err := yaml.Unmarshal(data, content); err != nil {
		return nil, fmt.Errorf("therapy: parse content file: %w", err)
	}

	if err := content.Validate(); err != nil {
		return nil, err
	}
	return content, nil
}

// Validate checks that the required text blocks are present.
func (c *Content) Validate() error {
	if c.Persona == "" {
		return fmt.Errorf("therapy: content persona is required")
	}
	if c.CannedCrisisReply == "" || c.CannedGenericReply == "" {
		return fmt.Errorf("therapy: canned replies are required")
	}
	if len(c.Guidance) == 0 {
		return fmt.Errorf("therapy: emotion guidance is required")
	}
	return nil
}

// guidanceFor returns the guidance block for a label, defaulting to the
// neutral variant for unknown labels.
func (c *Content) guidanceFor(label string) string {
	if g, ok := c.Guidance[label]; ok {
		return g
	}
	return c.Guidance[emotion.LabelNeutral]
}
