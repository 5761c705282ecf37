package security

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Character set constants
const (
	charsetLowercase = "abcdefghijklmnopqrstuvwxyz"
	charsetUppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	charsetDigits    = "0123456789"
	charsetSymbols   = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

	// GeneratedMinLength and GeneratedMaxLength bound generated passwords.
	GeneratedMinLength = 14
	GeneratedMaxLength = 64
)

// ErrGeneratedLength indicates a requested length outside the enforced bound.
var ErrGeneratedLength = errors.New("security: generated password length out of range")

// GeneratePassword returns a cryptographically random password of the given
// length drawn from letters, digits, and symbols. The length must lie within
// [GeneratedMinLength, GeneratedMaxLength].
func GeneratePassword(length int) (string, error) {
	if length < GeneratedMinLength || length > GeneratedMaxLength {
		return "", fmt.Errorf("%w: %d not in [%d, %d]",
			ErrGeneratedLength, length, GeneratedMinLength, GeneratedMaxLength)
	}

	charset := charsetLowercase + charsetUppercase + charsetDigits + charsetSymbols
	charsetLen := big.NewInt(int64(len(charset)))

	password := make([]byte, length)
	for i := range password {
		// crypto/rand with rejection-free modular sampling via math/big
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", fmt.Errorf("security: failed to generate random index: %w", err)
		}
		password[i] = charset[idx.Int64()]
	}

	return string(password), nil
}
