// Package tokenize splits free-text place queries into tokens and produces the
// normalized form used both as the candidate search key and for in-memory
// exact-match checks.
package tokenize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// extraMaps folds letters that generic accent stripping leaves alone.
// Order matters only for overlapping sources, of which there are none.
var extraMaps = strings.NewReplacer(
	"ß", "ss", "ẞ", "ss",
	"Æ", "ae", "æ", "ae",
	"Ø", "o", "ø", "o",
	"Ð", "d", "ð", "d",
	"Þ", "th", "þ", "th",
	"Ł", "l", "ł", "l",
	"İ", "i", "ı", "i",
	"Đ", "d", "đ", "d",
	"Ħ", "h", "ħ", "h",
	"Å", "a", "å", "a",
	"Ĳ", "ij", "ĳ", "ij",
	"Ǆ", "dz", "ǅ", "dz", "ǆ", "dz",
	"Ǉ", "lj", "ǈ", "lj", "ǉ", "lj",
	"Ǌ", "nj", "ǋ", "nj", "ǌ", "nj",
	"ŉ", "n",
	"Ŋ", "ng", "ŋ", "ng",
	"Ƒ", "f", "ƒ", "f",
	"Ğ", "g", "ğ", "g",
	"Ş", "s", "ş", "s",
	"Ə", "e", "ə", "e",
	"Ŀ", "l", "ŀ", "l",
	"·", "",
	"µ", "u",
	"ℓ", "l",
	"№", "No",
	"ª", "a", "º", "o",
)

// Split breaks query text on runs of commas, periods and whitespace. Tokens
// keep their original case and diacritics.
func Split(text string) []string {
	parts := strings.FieldsFunc(text, isSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isSeparator(r rune) bool {
	return r == ',' || r == '.' || unicode.IsSpace(r)
}

// Normalize folds a token to its lookup key: explicit letter substitutions,
// accent stripping, lowercasing and NFC recomposition. It is pure and
// idempotent.
func Normalize(token string) string {
	if token == "" {
		return ""
	}

	s := extraMaps.Replace(token)

	// transform.Chain keeps state, so build one per call.
	strip := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	stripped, _, err := transform.String(strip, s)
	if err != nil {
		stripped = s
	}
	// Decomposition can expose mapped letters (ǿ → ø + acute).
	stripped = extraMaps.Replace(stripped)

	return norm.NFC.String(strings.ToLower(stripped))
}

// NormalizeAll normalizes every token, preserving order.
func NormalizeAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = Normalize(t)
	}
	return out
}

// Bigram joins two normalized tokens into the phrase searched for multi-word
// place names.
func Bigram(a, b string) string {
	return Normalize(a + " " + b)
}
