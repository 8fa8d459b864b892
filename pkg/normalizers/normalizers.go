// Package normalizers provides value normalization for preference
// canonicalization
package normalizers

import (
	"strings"
	"unicode"
)

// NormalizeCriterion normalizes a preference criterion value for set
// membership comparison: lowercase, trimmed, inner whitespace collapsed.
// "No Preference" and "Any" variants all collapse to the same token so the
// preference layer can recognize wildcards regardless of form wording.
func NormalizeCriterion(s string) string {
	s = collapseWhitespace(strings.ToLower(s))
	switch s {
	case "any", "no preference", "doesn't matter", "doesnt matter", "open to all":
		return "any"
	}
	return s
}

// collapseWhitespace replaces runs of whitespace with a single space and
// trims the ends
func collapseWhitespace(s string) string {
	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		result.WriteRune(r)
		prevSpace = false
	}
	return strings.TrimSpace(result.String())
}
