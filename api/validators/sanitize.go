package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims, collapses inner whitespace and caps the result at
// maxLen runes. Buyer and transferee names routinely carry accents, so the
// cut never splits a multi-byte character.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 || utf8.RuneCountInString(cleaned) <= maxLen {
		return cleaned
	}
	runes := []rune(cleaned)
	return strings.TrimSpace(string(runes[:maxLen]))
}

// NormalizeEmail lowercases and trims an address before it is stored or mailed.
func NormalizeEmail(input string) string {
	return strings.ToLower(strings.TrimSpace(input))
}
