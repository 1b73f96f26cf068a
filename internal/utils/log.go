package utils

import "strings"

// TruncateForLog collapses runs of whitespace into single spaces and cuts the
// result to limit runes, appending "..." when something was dropped.
func TruncateForLog(s string, limit int) string {
	if limit <= 0 {
		return ""
	}

	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit]) + "..."
}
