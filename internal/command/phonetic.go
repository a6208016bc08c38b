package command

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// phoneticMatch reports whether some run of words in text sounds like phrase.
//
// The transcript is scanned with a window the size of the phrase. A window
// matches when every differing word is outside vocab and shares a Double
// Metaphone code with its counterpart, and the Jaro-Winkler similarity of the
// joined window is at least threshold. This catches recogniser slips such as
// "detekt objects" or "what's in frunt" without turning one command word into
// another ("say" is never heard as "see").
func phoneticMatch(text, phrase string, threshold float64, vocab map[string]bool) bool {
	words := strings.Fields(stripPunct(text))
	want := strings.Fields(stripPunct(phrase))
	if len(want) == 0 || len(words) < len(want) {
		return false
	}
	joined := strings.Join(want, " ")
	for i := 0; i+len(want) <= len(words); i++ {
		window := words[i : i+len(want)]
		if !soundsAlike(window, want, vocab) {
			continue
		}
		if matchr.JaroWinkler(strings.Join(window, " "), joined, false) >= threshold {
			return true
		}
	}
	return false
}

// soundsAlike reports whether each word in a equals, or is an out-of-vocab
// word sharing a Double Metaphone code with, the word at the same position
// in b.
func soundsAlike(a, b []string, vocab map[string]bool) bool {
	for i := range a {
		if a[i] == b[i] {
			continue
		}
		if vocab[a[i]] {
			return false
		}
		ap, as := matchr.DoubleMetaphone(a[i])
		bp, bs := matchr.DoubleMetaphone(b[i])
		if !codeIn(ap, bp, bs) && !codeIn(as, bp, bs) {
			return false
		}
	}
	return true
}

func codeIn(code string, set ...string) bool {
	if code == "" {
		return false
	}
	for _, s := range set {
		if s == code {
			return true
		}
	}
	return false
}

// stripPunct drops everything but letters, digits, apostrophes and spaces.
func stripPunct(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'', r == ' ':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, s)
}
