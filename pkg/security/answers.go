package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// ErrDuplicateAnswer indicates two security answers that normalize to the
// same cleartext value, which would let one trivial answer satisfy multiple
// challenges.
var ErrDuplicateAnswer = errors.New("security: duplicate security answer")

// NormalizeAnswer canonicalizes a security answer for hashing and
// comparison: trimmed, Unicode NFC, case-folded. "  Rex " and "rex" are the
// same answer.
func NormalizeAnswer(answer string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(answer)))
}

// CheckAnswerSet rejects an answer set in which two answers normalize to the
// same value. Answers are compared through HMAC-SHA256 with a session-local
// key so cleartext answers never sit in a comparison map.
func CheckAnswerSet(answers []string) error {
	hmacKey := make([]byte, 32)
	if _, err := rand.Read(hmacKey); err != nil {
		return fmt.Errorf("security: failed to generate comparison key: %w", err)
	}

	seen := make(map[string]int, len(answers))
	for i, answer := range answers {
		mac := hmac.New(sha256.New, hmacKey)
		mac.Write([]byte(NormalizeAnswer(answer)))
		digest := hex.EncodeToString(mac.Sum(nil))

		if prev, dup := seen[digest]; dup {
			return fmt.Errorf("%w: answers %d and %d are equivalent", ErrDuplicateAnswer, prev+1, i+1)
		}
		seen[digest] = i
	}

	return nil
}
