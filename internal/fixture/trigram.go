package fixture

import (
	"unicode"
)

// Similarity ports pg_trgm's similarity(): the Jaccard index of the two
// strings' trigram sets. Inputs are expected to be normalized already.
func Similarity(a, b string) float64 {
	ta, tb := trigrams(a), trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			common++
		}
	}
	return float64(common) / float64(len(ta)+len(tb)-common)
}

// trigrams splits s into alphanumeric words, pads each with two leading
// blanks and one trailing blank, and collects every three-rune window.
func trigrams(s string) map[string]struct{} {
	out := make(map[string]struct{})
	word := make([]rune, 0, 16)

	flush := func() {
		if len(word) == 0 {
			return
		}
		padded := make([]rune, 0, len(word)+3)
		padded = append(padded, ' ', ' ')
		padded = append(padded, word...)
		padded = append(padded, ' ')
		for i := 0; i+3 <= len(padded); i++ {
			out[string(padded[i:i+3])] = struct{}{}
		}
		word = word[:0]
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			word = append(word, unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return out
}
