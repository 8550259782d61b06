package common

import (
	"strings"
	"unicode"
)

// NormalizeKey lower-cases s, strips all whitespace and removes every
// occurrence of the given substrings, in that order.
func NormalizeKey(s string, drop ...string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	for _, d := range drop {
		s = strings.ReplaceAll(s, d, "")
	}
	return s
}

// SplitList splits a comma separated list, trimming blanks and dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
