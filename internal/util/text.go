package util

import (
	"unicode"
	"unicode/utf8"
)

// TruncateChars cuts s to at most n characters (runes, not bytes)
func TruncateChars(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return s[:ForwardChars(s, 0, n)]
}

// CapitalizeFirst uppercases the first character of s
func CapitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// BackChars returns the byte offset n characters before offset i, clamped at 0
func BackChars(s string, i, n int) int {
	for ; n > 0 && i > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:i])
		i -= size
	}
	return i
}

// ForwardChars returns the byte offset n characters after offset i, clamped at len(s)
func ForwardChars(s string, i, n int) int {
	for ; n > 0 && i < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}
