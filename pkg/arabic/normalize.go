// Package arabic provides text canonicalization and crisis keyword
// detection for Arabic input.
//
// Normalization strips diacritics, unifies letter variants that are
// written interchangeably (alef forms, final yaa, taa marbuta), and
// collapses whitespace, so that downstream keyword matching and emotion
// scoring see one canonical spelling per word.
package arabic

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Letter unifications applied after diacritic stripping.
// إ/أ/آ/ا → ا, ى → ي, ة → ه.
var unifier = strings.NewReplacer(
	"إ", "ا", // إ
	"أ", "ا", // أ
	"آ", "ا", // آ
	"ى", "ي", // ى → ي
	"ة", "ه", // ة → ه
)

// Normalize canonicalizes Arabic text: it removes combining marks
// (tashkeel and other diacritics), unifies letter variants, and
// collapses runs of whitespace to a single space.
//
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	decomposed := norm.NFD.String(s)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	unified := unifier.Replace(b.String())

	return strings.Join(strings.Fields(unified), " ")
}

// IsArabic reports whether the text contains at least one character
// from the Arabic Unicode block.
func IsArabic(s string) bool {
	for _, r := range s {
		if r >= 0x0600 && r <= 0x06FF {
			return true
		}
	}
	return false
}
