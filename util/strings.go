package util

import (
	"strings"
	"unicode"
)

// Digits removes everything but ASCII digits, so "529.982.247-25" becomes "52998224725".
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// IsBlank returns true if s contains nothing but whitespace.
func IsBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}

// Trunc truncates the input string to a specific length.
// It is UTF8-safe, but does not care for HTML.
func Trunc(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	var runes = 0
	for i := range s {
		if runes == maxRunes {
			return strings.TrimSpace(s[:i]) + "…"
		}
		runes++
	}
	return s
}

// Mask formats digits according to a pattern in which '#' stands for a digit, like "###.###.###-##".
// If the number of digits does not match the pattern, the digits are returned unchanged.
func Mask(digits, pattern string) string {
	if strings.Count(pattern, "#") != len(digits) {
		return digits
	}
	var b strings.Builder
	var i = 0
	for _, r := range pattern {
		if r == '#' {
			b.WriteByte(digits[i])
			i++
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
