// Package tts voice presets for ElevenLabs.
package tts

// Voices maps friendly preset names to ElevenLabs voice IDs. All
// presets work with the multilingual model and handle Arabic text.
// Use ResolveVoice to look up a voice by name or pass through raw IDs.
var Voices = map[string]string{
	"sarah":     "EXAVITQu4vr4xnSDxMaL", // female, soft
	"rachel":    "21m00Tcm4TlvDq8ikWAM", // female, calm
	"charlotte": "XB0fDUnXU5powFXDhCwa", // female, warm
	"lily":      "pFZP5JQG7iQjIQuC4Bku", // female, warm
	"adam":      "pNInz6obpgDQGcFmaJgB", // male, deep
	"george":    "JBFqnCBsd6RMkjVDRZzb", // male, steady
}

// DefaultVoice is the default voice preset, chosen for a calm
// reassuring delivery.
const DefaultVoice = "rachel"

// ResolveVoice returns the voice ID for a preset name,
// or the input unchanged if it's already a voice ID.
func ResolveVoice(name string) string {
	if id, ok := Voices[name]; ok {
		return id
	}
	return name // Assume it's already a voice ID
}

// IsPreset returns true if the name is a known preset.
func IsPreset(name string) bool {
	_, ok := Voices[name]
	return ok
}
