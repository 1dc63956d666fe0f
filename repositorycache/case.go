package repositorycache

import (
	"strings"
	"unicode"
)

// toSnake turns a Go type name into its entity-type tag. The name is split
// into words at case changes, digit runs and punctuation, then the words are
// joined lower case with underscores. Reflected generic names
// ("Page[domain.Country]") collapse to plain words.
func toSnake(s string) string {
	return strings.Join(splitWords(s), "_")
}

func splitWords(s string) []string {
	runes := []rune(s)
	words := make([]string, 0, 4)
	start := -1

	flush := func(end int) {
		if start >= 0 && end > start {
			words = append(words, strings.ToLower(string(runes[start:end])))
		}
		start = -1
	}

	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start >= 0 && wordBoundary(runes, i) {
			flush(i)
		}
		if start < 0 {
			start = i
		}
	}
	flush(len(runes))

	return words
}

// wordBoundary reports whether runes[i] starts a new word given the rune
// before it. Acronyms stay together until the last capital that begins a
// lower case word ("HTMLBody" is html, body).
func wordBoundary(runes []rune, i int) bool {
	prev, cur := runes[i-1], runes[i]

	switch {
	case unicode.IsDigit(cur):
		return !unicode.IsDigit(prev)
	case unicode.IsUpper(cur):
		if unicode.IsLower(prev) || unicode.IsDigit(prev) {
			return true
		}
		return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
	}
	return false
}
