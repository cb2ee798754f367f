package workbook

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxSheetName = 31
	truncatedTo  = 28
	dedupePrefix = 27
)

var invalidSheetChars = regexp.MustCompile(`[:\\/?*\[\]]`)

// SanitizeSheetName makes a match label usable as a sheet name
func SanitizeSheetName(name string) string {
	safe := invalidSheetChars.ReplaceAllString(name, "-")
	if r := []rune(safe); len(r) > maxSheetName {
		safe = string(r[:truncatedTo]) + "..."
	}
	return safe
}

// SheetNamer hands out unique sanitized sheet names. Spreadsheet names
// compare case-insensitively, so uniqueness does too.
type SheetNamer struct {
	used map[string]bool
}

// NewSheetNamer creates a namer with names already taken
func NewSheetNamer(reserved ...string) *SheetNamer {
	n := &SheetNamer{used: make(map[string]bool)}
	for _, r := range reserved {
		n.used[strings.ToLower(r)] = true
	}
	return n
}

// Name returns a sanitized name not handed out before
func (n *SheetNamer) Name(label string) string {
	safe := SanitizeSheetName(label)
	base := []rune(safe)
	if len(base) > dedupePrefix {
		base = base[:dedupePrefix]
	}
	for i := 2; n.used[strings.ToLower(safe)]; i++ {
		safe = fmt.Sprintf("%s-%d", string(base), i)
	}
	n.used[strings.ToLower(safe)] = true
	return safe
}
