package util

import "strings"

// SanitizeText strips invalid UTF-8 and NUL bytes. Postgres TEXT columns
// reject both, and user supplied moment names end up in those columns.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	sanitized = strings.ReplaceAll(sanitized, "\x00", "")
	return strings.TrimSpace(sanitized)
}
