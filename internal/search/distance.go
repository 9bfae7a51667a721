package search

// SubstringDistance returns the smallest number of single-character edits
// (insertions, deletions, or substitutions) needed to turn pattern into some
// substring of text. It is 0 when text contains pattern and len(pattern) when
// text is empty. Comparison is by rune, so multi-byte characters count once.
func SubstringDistance(pattern, text string) int {
	return substringDistance([]rune(pattern), []rune(text))
}

func substringDistance(pattern, text []rune) int {
	m := len(pattern)
	if m == 0 {
		return 0
	}
	if len(text) == 0 {
		return m
	}

	// Two rows over the pattern; column j walks the text. Row 0 stays 0 so a
	// match may start anywhere in text.
	prev := make([]int, m+1)
	curr := make([]int, m+1)
	for i := 0; i <= m; i++ {
		prev[i] = i
	}
	best := prev[m]

	for j := 1; j <= len(text); j++ {
		curr[0] = 0
		for i := 1; i <= m; i++ {
			cost := 1
			if pattern[i-1] == text[j-1] {
				cost = 0
			}
			curr[i] = min3(
				prev[i]+1,      // skip a text rune
				curr[i-1]+1,    // skip a pattern rune
				prev[i-1]+cost, // substitution
			)
		}
		if curr[m] < best {
			best = curr[m]
			if best == 0 {
				return 0
			}
		}
		prev, curr = curr, prev
	}
	return best
}

func min3(a, b, c int) int {
	if a <= b && a <= c {
		return a
	}
	if b <= c {
		return b
	}
	return c
}
