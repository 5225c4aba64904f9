package arabic

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain ascii", "hello", "hello"},
		{"alef variants unified", "أحبك إلى", "احبك الي"},
		{"taa marbuta", "مدرسة", "مدرسه"},
		{"diacritics stripped", "مُحَمَّد", "محمد"},
		{"whitespace collapsed", "  مرحبا   بك  ", "مرحبا بك"},
		{"tabs and newlines", "a\t\nb", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"hello world",
		"أشعر بالحُزن",
		"   mixed عربي text  ",
		"مدرسة إلى آخر",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestIsArabic(t *testing.T) {
	if !IsArabic("مرحبا") {
		t.Error("expected Arabic text to be detected")
	}
	if IsArabic("hello") {
		t.Error("expected plain English to not be Arabic")
	}
	if !IsArabic("some عربي mixed in") {
		t.Error("expected mixed text to be detected as Arabic")
	}
	if IsArabic("") {
		t.Error("expected empty string to not be Arabic")
	}
}

func TestDetector(t *testing.T) {
	d := NewDetector(nil)

	t.Run("crisis phrase matches", func(t *testing.T) {
		if !d.Detect("أريد أن أموت") {
			t.Error("expected crisis detection for أريد أن أموت")
		}
	})

	t.Run("english keyword matches case-insensitively", func(t *testing.T) {
		if !d.Detect("I just Want To Die sometimes") {
			t.Error("expected case-insensitive match")
		}
	})

	t.Run("keyword matches despite diacritics", func(t *testing.T) {
		// انتحار with added diacritics still matches after normalization.
		if !d.Detect("اِنْتِحَار") {
			t.Error("expected match after diacritic stripping")
		}
	})

	t.Run("neutral text does not match", func(t *testing.T) {
		if d.Detect("أشعر بالحزن الشديد") {
			t.Error("sadness alone should not trigger crisis detection")
		}
	})

	t.Run("empty text does not match", func(t *testing.T) {
		if d.Detect("") {
			t.Error("empty text should never match")
		}
	})
}

func TestDetectorCustomKeywords(t *testing.T) {
	d := NewDetector([]string{"طوارئ"})

	if !d.Detect("حالة طوارئ الآن") {
		t.Error("expected custom keyword to match")
	}
	if d.Detect("want to die") {
		t.Error("default keywords should not apply when a custom list is given")
	}
}
