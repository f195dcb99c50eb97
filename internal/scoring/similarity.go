package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// Similarity returns a case-insensitive edit-distance similarity in [0,1]:
// 1 - levenshtein(a, b) / max(len(a), len(b)), counted in runes.
// Two empty strings are identical; an empty and a non-empty string score 0.
func Similarity(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1.0
	}

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1.0
	}

	distance := fuzzy.LevenshteinDistance(a, b)
	return 1.0 - float64(distance)/float64(longest)
}
