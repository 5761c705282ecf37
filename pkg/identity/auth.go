package identity

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/vaultica/vaultica/pkg/security"
)

// ErrBadCredentials indicates a password that does not verify against the
// stored hash. The message never distinguishes why.
var ErrBadCredentials = errors.New("identity: invalid credentials")

// HashPassword produces a salted bcrypt hash of a password. The salt is
// embedded in the hash, so verification needs no separate salt record.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("identity: failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Authenticate verifies a login attempt. An absent username fails with
// ErrUnknownUser; a wrong password, including the empty string, fails with
// ErrBadCredentials. bcrypt's comparison runs in constant time relative to
// the secret content.
func Authenticate(s *Store, username, password string) (*User, error) {
	user, err := s.Get(username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrBadCredentials
	}
	return user, nil
}

// HashAnswer produces a salted bcrypt hash of a normalized security answer.
func HashAnswer(answer string) (string, error) {
	normalized := security.NormalizeAnswer(answer)
	hash, err := bcrypt.GenerateFromPassword([]byte(normalized), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("identity: failed to hash answer: %w", err)
	}
	return string(hash), nil
}

// VerifyAnswer reports whether an answer, after normalization, verifies
// against a stored answer hash.
func VerifyAnswer(answerHash, answer string) bool {
	normalized := security.NormalizeAnswer(answer)
	return bcrypt.CompareHashAndPassword([]byte(answerHash), []byte(normalized)) == nil
}
