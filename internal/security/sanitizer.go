package security

import (
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const MaxGuessLength = 200

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeString trims s, drops null bytes and caps it at maxRunes characters.
func SanitizeString(input string, maxRunes int) string {
	input = strings.TrimSpace(input)
	input = strings.ReplaceAll(input, "\x00", "")

	if utf8.RuneCountInString(input) > maxRunes {
		input = string([]rune(input)[:maxRunes])
	}

	return input
}

// SanitizeGuess cleans free text before it is matched.
func SanitizeGuess(input string) string {
	return SanitizeString(input, MaxGuessLength)
}

// SanitizeHTML removes all HTML tags, for operator text relayed in HTML mode.
func SanitizeHTML(input string) string {
	return htmlPolicy.Sanitize(input)
}
