// Package slugindex implements the article slug lookup index: an offline
// builder plus query-time search over (slug, title, url) records. Two backing
// variants exist behind one interface: an in-memory index for development and
// a persisted full-text store for production. Both answer the same ordering
// contract: prefix matches before substring matches, then shorter titles,
// then lexicographic slug order.
package slugindex

import (
	"strings"
	"unicode"
)

// Normalize canonicalizes a raw query or slug for matching: lowercase,
// underscores and whitespace runs collapsed to single spaces, leading and
// trailing separators trimmed, and any character outside the accepted
// alphabet (letters, digits, hyphen, apostrophe) dropped.
//
// Normalize is pure and total: any input, including empty strings, control
// characters, and arbitrary unicode, yields a normalized string. Both index
// variants use it for keys and queries so behavior is identical across modes.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\'':
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case r == '_' || unicode.IsSpace(r):
			pendingSpace = true
		default:
			// outside the accepted alphabet: dropped
		}
	}
	return b.String()
}

// Tokenize splits a normalized string into its space-separated terms.
func Tokenize(normalized string) []string {
	return strings.Fields(normalized)
}
