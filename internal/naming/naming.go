// Package naming holds the identifier transforms shared by metadata
// inference and code synthesis.
package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// CamelCase upper-cases the first character of s and leaves the rest untouched.
func CamelCase(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// LowerFirst lower-cases the first character of s.
func LowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// TrimPrefix strips a verb prefix such as "get" from an accessor name and
// returns the canonical key with its first letter lower-cased. The character
// after the prefix must be upper-case, so "getaway" does not yield "away".
func TrimPrefix(name, prefix string) (string, bool) {
	if !strings.HasPrefix(name, prefix) {
		return "", false
	}
	rest := name[len(prefix):]
	r, _ := utf8.DecodeRuneInString(rest)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return "", false
	}
	return LowerFirst(rest), true
}

// Singular drops the trailing character of a plural key ("items" -> "item").
func Singular(key string) string {
	if len(key) <= 1 {
		return key
	}
	_, size := utf8.DecodeLastRuneInString(key)
	return key[:len(key)-size]
}

// CountOccurrences counts non-overlapping instances of sub in s.
func CountOccurrences(s, sub string) int {
	if sub == "" {
		return 0
	}
	return strings.Count(s, sub)
}

// PathIdentifier turns a slash path into an object key: "/a/b" -> "a_b".
func PathIdentifier(path string) string {
	id := strings.ReplaceAll(path, "/", "_")
	return strings.TrimPrefix(id, "_")
}

// FunctionName camel-cases every segment of a slash path and joins them:
// "/address/street" -> "AddressStreet".
func FunctionName(path string) string {
	var b strings.Builder
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		b.WriteString(CamelCase(seg))
	}
	return b.String()
}
