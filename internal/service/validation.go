package service

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const minPasswordLength = 8

var emailPattern = regexp.MustCompile(`^[\w\.-]+@[\w\.-]+\.\w+$`)

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// isStrongPassword requires eight characters with at least one letter and one digit.
func isStrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
