package arabic

import "strings"

// DefaultCrisisKeywords are the terms that trigger the crisis protocol
// branch of response generation. The list is fixed configuration; it is
// not user-editable at runtime.
var DefaultCrisisKeywords = []string{
	"انتحار",
	"موت",
	"قتل نفسي",
	"لا أريد العيش",
	"أريد أن أموت",
	"suicide",
	"kill myself",
	"want to die",
}

// Detector matches a fixed keyword list against normalized text.
// A Detector is immutable after construction and safe for concurrent use.
type Detector struct {
	keywords []string
}

// NewDetector creates a Detector for the given keywords. Each keyword is
// lowercased and normalized once at construction so that matching is a
// plain substring test. An empty list falls back to DefaultCrisisKeywords.
func NewDetector(keywords []string) *Detector {
	if len(keywords) == 0 {
		keywords = DefaultCrisisKeywords
	}
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = Normalize(strings.ToLower(k))
		if k != "" {
			normalized = append(normalized, k)
		}
	}
	return &Detector{keywords: normalized}
}

// Detect reports whether any configured keyword occurs as a substring of
// the normalized, lowercased text. It returns true on the first match.
func (d *Detector) Detect(text string) bool {
	normalized := Normalize(strings.ToLower(text))
	if normalized == "" {
		return false
	}
	for _, k := range d.keywords {
		if strings.Contains(normalized, k) {
			return true
		}
	}
	return false
}

// Keywords returns a copy of the normalized keyword list.
func (d *Detector) Keywords() []string {
	out := make([]string, len(d.keywords))
	copy(out, d.keywords)
	return out
}
