// Package security provides the password policy, strength scoring,
// security-answer validation, and random password generation for vaultica.
package security

import (
	"errors"
	"fmt"
	"unicode"
)

// MinPasswordLength is the hard minimum for user-chosen passwords.
const MinPasswordLength = 8

// ErrWeakPassword indicates a password that fails the strength policy.
// The wrapped message names the violated rule.
var ErrWeakPassword = errors.New("security: password does not satisfy the strength policy")

// ValidatePassword enforces the registration policy: at least 8 characters
// with at least one lowercase and one uppercase letter. The same policy
// gates password resets.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrWeakPassword, MinPasswordLength)
	}

	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}

	if !hasLower {
		return fmt.Errorf("%w: must contain at least one lowercase letter", ErrWeakPassword)
	}
	if !hasUpper {
		return fmt.Errorf("%w: must contain at least one uppercase letter", ErrWeakPassword)
	}

	return nil
}
