package token

import (
	"unicode"
	"unicode/utf8"
)

const (
	MinNameLen = 5
	MaxNameLen = 40
)

// CheckName returns a problem description, or "" when name is acceptable.
func CheckName(name string) string {
	if l := utf8.RuneCountInString(name); l < MinNameLen || l > MaxNameLen {
		return "token name length must be 5-40 characters"
	}
	for _, r := range name {
		if !unicode.IsPrint(r) || r == '/' {
			return "token name contains forbidden characters"
		}
	}
	return ""
}
