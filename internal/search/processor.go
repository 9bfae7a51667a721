package search

import (
	"strings"
	"unicode"
)

// Normalize trims surrounding whitespace and lower-cases the query. It is the
// form used for exact-match lookups.
func Normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Prepare lower-cases text and collapses runs of whitespace into single spaces.
// Both queries and field text go through Prepare before scoring so multi-line
// descriptions compare the same as single-line ones.
func Prepare(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
			continue
		}
		b.WriteRune(unicode.ToLower(r))
		wasSpace = false
	}
	return b.String()
}
