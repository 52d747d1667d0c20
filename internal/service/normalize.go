package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// NormalizeFoodName case-folds s, turns punctuation and symbols into spaces
// and collapses whitespace. Dataset keys and queries go through the same function.
func NormalizeFoodName(s string) string {
	// Casers keep state, so one per call.
	folded := cases.Fold().String(s)

	mapped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, folded)

	return strings.Join(strings.Fields(mapped), " ")
}
