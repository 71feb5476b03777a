package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeGuess lower-cases s and collapses runs of whitespace.
func NormalizeGuess(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// TitleCase upper-cases the first letter of every word ("andromeda galaxy"
// becomes "Andromeda Galaxy", "ngc 224" becomes "Ngc 224").
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// FirstRunes returns at most n runes of s.
func FirstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// RuneLen counts characters rather than bytes.
func RuneLen(s string) int {
	return len([]rune(s))
}
