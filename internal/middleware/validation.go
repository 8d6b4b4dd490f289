package middleware

import (
	"errors"
	"regexp"
	"strings"
	"unicode"
)

// Validation limits.
const (
	// MaxEmailLength follows the SMTP path limit.
	MaxEmailLength = 254

	// MinPasswordLength is the minimum accepted password length.
	MinPasswordLength = 8

	// MaxPasswordLength caps hashing work per request.
	MaxPasswordLength = 256

	// MaxNameLength is the maximum length for display names.
	MaxNameLength = 100
)

// Validation errors.
var (
	ErrEmailRequired    = errors.New("email is required")
	ErrEmailTooLong     = errors.New("email exceeds maximum length")
	ErrEmailInvalid     = errors.New("email format is invalid")
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password is too short")
	ErrPasswordTooLong  = errors.New("password exceeds maximum length")
	ErrPasswordTooWeak  = errors.New("password must mix letters and digits")
	ErrNameTooLong      = errors.New("name exceeds maximum length")
	ErrNameInvalid      = errors.New("name contains control characters")
)

// emailPattern is a pragmatic email shape check: one @, a non-empty
// local part, and a dotted domain. Full RFC 5322 parsing buys nothing
// here; deliverability is the collaborator's concern.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidateEmail validates an email address for registration or login.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)

	if email == "" {
		return ErrEmailRequired
	}

	if len(email) > MaxEmailLength {
		return ErrEmailTooLong
	}

	if !emailPattern.MatchString(email) {
		return ErrEmailInvalid
	}

	return nil
}

// ValidatePassword validates password strength for registration.
// Login accepts any non-empty password; strength only matters when
// setting one.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}

	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
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

	if !hasLetter || !hasDigit {
		return ErrPasswordTooWeak
	}

	return nil
}

// ValidateName validates an optional display name.
func ValidateName(name string) error {
	if name == "" {
		return nil
	}

	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return ErrNameInvalid
		}
	}

	return nil
}
