package roster

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// trueTokens are the accepted spellings of "yes", compared after folding
var trueTokens = map[string]struct{}{
	"ja":   {},
	"j":    {},
	"yes":  {},
	"y":    {},
	"1":    {},
	"true": {},
}

// ParseBool interprets a free-text spreadsheet cell. Anything that is not a
// known "yes" token is false.
func ParseBool(s string) bool {
	_, ok := trueTokens[fold(s)]
	return ok
}

// fold normalizes text for case-insensitive comparison
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}
