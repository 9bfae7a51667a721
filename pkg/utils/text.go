// Package utils provides shared utilities for text and logging.
package utils

import "fmt"

// Plural formats n with word, adding an "s" unless n is 1.
func Plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
