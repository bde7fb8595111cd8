package auth

import (
	"net/mail"
	"strings"
)

// NormalizeEmail returns the canonical form of an email address:
// trimmed and lowercased. All storage and lookups use this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail checks if the provided email address is valid
func IsValidEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}
