// Package stringutil provides common string manipulation utilities.
package stringutil

import "strings"

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// TrimLeadingZeros removes leading zeros from a digit string.
// "029" becomes "29"; strings of only zeros become "".
func TrimLeadingZeros(s string) string {
	return strings.TrimLeft(s, "0")
}

// TruncateRunes truncates a string to at most maxRunes runes.
// Safe for multi-byte text; never splits a rune.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes])
}

// CollapseSpaces trims the string and collapses runs of whitespace into a
// single space. Used to sanitize chat input and to flatten index rows into
// single-line LLM context entries.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
