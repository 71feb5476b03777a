package services

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const DefaultMatchThreshold = 0.7

// Matcher judges free-text guesses against a set of accepted names.
type Matcher struct {
	Threshold float64
}

// IsAcceptable reports whether guess clears the threshold against any of
// the accepted names. Accepted names are expected lower-cased.
func (m Matcher) IsAcceptable(guess string, accepted []string) bool {
	threshold := m.Threshold
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}

	guess = strings.ToLower(guess)
	for _, name := range accepted {
		if Similarity(guess, strings.ToLower(name)) >= threshold {
			return true
		}
	}
	return false
}

// Similarity is the longest-matching-blocks ratio 2*M/T of a and b compared
// character by character: 1.0 for identical strings, 0.0 for nothing in common.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
