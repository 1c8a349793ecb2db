package user

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxEmailLen    = 254
	MinPasswordLen = 8
	MaxPasswordLen = 128
	MinNameLen     = 2
	MaxNameLen     = 64
)

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CheckEmail returns a problem description, or "" when email is acceptable.
func CheckEmail(email string) string {
	switch {
	case email == "":
		return "email is required"
	case len(email) > MaxEmailLen:
		return "email is too long"
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "invalid email format"
	}
	return ""
}

func CheckPassword(password string) string {
	if strings.TrimSpace(password) == "" {
		return "password is required"
	}
	if l := utf8.RuneCountInString(password); l < MinPasswordLen || l > MaxPasswordLen {
		return "password length must be 8-128 characters"
	}
	return ""
}

// CheckName validates a display name.
func CheckName(name string) string {
	if name == "" {
		return "name is required"
	}
	if l := utf8.RuneCountInString(name); l < MinNameLen || l > MaxNameLen {
		return "name length must be 2-64 characters"
	}
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' || r == '.' || r == '\'' {
			continue
		}
		return "allowed characters: letters, digits, space, '-', '_', '.', '''"
	}
	return ""
}
