package validation

import (
	"errors"
	"strings"
	"unicode"
)

// MinPasswordLength is the minimum accepted password length
const MinPasswordLength = 8

// Passwords frequently seen in breach corpora. Matched case-insensitively
// against the whole password.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"12345678":    {},
	"123456789":   {},
	"1234567890":  {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"letmein123":  {},
	"iloveyou1":   {},
	"admin123":    {},
	"welcome123":  {},
	"abc12345":    {},
	"sunshine1":   {},
	"football1":   {},
}

// ValidatePassword checks a candidate password against the account policy:
// at least MinPasswordLength characters, no whitespace, characters from at
// least 3 of the 4 categories (upper, lower, digit, symbol), not a known
// common password, and not containing the email's local part. The returned
// error message is user-facing and specific enough to self-correct.
func ValidatePassword(password, email string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters long")
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return errors.New("password must not contain whitespace")
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}

	categories := 0
	for _, present := range []bool{hasUpper, hasLower, hasDigit, hasSymbol} {
		if present {
			categories++
		}
	}
	if categories < 3 {
		return errors.New("password must use at least 3 of: uppercase, lowercase, digits, symbols")
	}

	if _, found := commonPasswords[strings.ToLower(password)]; found {
		return errors.New("password is too common")
	}

	if local := emailLocalPart(email); local != "" && len(local) >= 3 {
		if strings.Contains(strings.ToLower(password), local) {
			return errors.New("password must not contain your email address")
		}
	}

	return nil
}

func emailLocalPart(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return ""
	}
	return strings.ToLower(email[:at])
}
