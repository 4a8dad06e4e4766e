package dedupe

import (
	"regexp"
	"strings"
)

var (
	punctRe      = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)

	// Articles and filler words carry no identity signal for facility
	// names, so they are stripped before similarity comparison.
	stopwords = map[string]bool{
		"the": true,
		"of":  true,
		"and": true,
		"a":   true,
		"an":  true,
		"in":  true,
		"at":  true,
	}
)

// NormalizeName lowercases, strips punctuation and stopwords, and
// collapses whitespace. Used as the comparison form for fuzzy matching.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = punctRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !stopwords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// NameSimilarity returns a [0,1] similarity between two names using the
// ratio of the longest common subsequence to the combined length,
// computed over their normalized forms. Identical names score 1.0.
func NameSimilarity(a, b string) float64 {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	ra, rb := []rune(na), []rune(nb)
	lcs := lcsLength(ra, rb)
	return 2.0 * float64(lcs) / float64(len(ra)+len(rb))
}

func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// exactKey builds the case and whitespace normalized identity tuple used
// for exact duplicate detection.
func exactKey(name, county, constituency string) string {
	norm := func(s string) string {
		return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
	}
	return norm(name) + "|" + norm(county) + "|" + norm(constituency)
}
