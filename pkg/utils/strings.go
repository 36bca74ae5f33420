package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ContainsAny checks if the text contains any of the given keywords
func ContainsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

// FoldAccents lowercases s and removes diacritics ("Ciudad de México" -> "ciudad de mexico")
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	res, _, err := transform.String(t, s)
	if err != nil {
		res = s
	}
	return strings.ToLower(res)
}

// Truncate returns at most max runes of s
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// RuneLen is the character length of s
func RuneLen(s string) int {
	return utf8.RuneCountInString(s)
}

// HasPrefixFold reports whether s begins with prefix, ignoring case
func HasPrefixFold(s, prefix string) bool {
	n := utf8.RuneCountInString(prefix)
	r := []rune(s)
	if len(r) < n {
		return false
	}
	return strings.EqualFold(string(r[:n]), prefix)
}

// ContainsFold reports whether substr is within s, ignoring case
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
