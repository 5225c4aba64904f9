package therapy

import (
	"fmt"
	"strings"

	"github.com/sakina-labs/sakina/pkg/emotion"
)

// Exchange is one prior user/therapist turn, rendered into the
// generation context. The generator treats history as read-only.
type Exchange struct {
	User      string
	Therapist string
}

// noHistoryMarker is rendered when the session has no prior turns.
const noHistoryMarker = "(no prior conversation - this is the first exchange)"

// buildSystemPrompt assembles the deterministic system prompt: persona,
// current-emotion line, per-emotion guidance, the crisis protocol when
// flagged, and the rendered history.
func buildSystemPrompt(content *Content, primary emotion.Score, isCrisis bool, history []Exchange) string {
	var b strings.Builder

	b.WriteString(content.Persona)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Current emotion: %s (confidence: %.2f)\n", primary.Label, primary.Confidence)
	b.WriteString(content.guidanceFor(primary.Label))

	if isCrisis {
		b.WriteString("\n\n")
		b.WriteString(content.CrisisProtocol)
	}

	b.WriteString("\n\nConversation so far:\n")
	b.WriteString(renderHistory(history))

	return b.String()
}

// renderHistory renders prior turns as alternating client/therapist
// lines, or the explicit no-history marker.
func renderHistory(history []Exchange) string {
	if len(history) == 0 {
		return noHistoryMarker
	}

	var b strings.Builder
	for i, ex := range history {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "المراجع: %s\nالمعالج: %s", ex.User, ex.Therapist)
	}
	return b.String()
}

// buildValidationPrompt asks the secondary model to approve or rewrite
// the primary reply.
func buildValidationPrompt(reply, userText string, isCrisis bool) string {
	var b strings.Builder

	b.WriteString("You are validating a therapeutic response for cultural appropriateness and safety.\n\n")
	fmt.Fprintf(&b, "User input: %s\n", userText)
	fmt.Fprintf(&b, "Candidate response: %s\n", reply)
	fmt.Fprintf(&b, "Crisis situation: %t\n\n", isCrisis)
	b.WriteString(`Please:
1. Ensure the response is culturally appropriate for Omani/Gulf Arabic culture
2. Verify it follows Islamic values and family-centered approach
3. Check for therapeutic appropriateness
4. If crisis situation, ensure proper safety protocols

Respond with either:
- "` + ApprovalToken + `" if the response is appropriate
- An improved version in Omani dialect if changes are needed`)

	return b.String()
}

// buildFallbackPrompt is the standalone generation prompt used when the
// primary model failed outright and the secondary generates alone.
func buildFallbackPrompt(content *Content, userText string, primary emotion.Score, isCrisis bool, history []Exchange) string {
	var b strings.Builder

	b.WriteString("You are an AI therapist specializing in Omani/Gulf Arabic culture.\n\n")
	fmt.Fprintf(&b, "User said: %s\n", userText)
	fmt.Fprintf(&b, "Detected emotion: %s\n", primary.Label)
	fmt.Fprintf(&b, "Crisis situation: %t\n\n", isCrisis)
	b.WriteString(`Please provide a therapeutic response in Omani dialect that:
- Shows empathy and understanding
- Respects Islamic values and family importance
- Uses appropriate Omani dialect expressions
- Provides practical, culturally-sensitive advice`)
	if isCrisis {
		b.WriteString("\n- Includes crisis intervention and mentions the " + EmergencyLine + " helpline")
	}
	b.WriteString("\n\nConversation so far:\n")
	b.WriteString(renderHistory(history))
	b.WriteString("\n\nResponse should be 2-3 sentences maximum.")

	return b.String()
}
