package utils

import "strings"

// Truncate returns s truncated to maxLen bytes, with "..." appended if
// truncated. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Humanize converts a slug into a display title by replacing underscores
// with spaces.
func Humanize(slug string) string {
	return strings.ReplaceAll(slug, "_", " ")
}
