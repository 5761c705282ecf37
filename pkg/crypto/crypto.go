// Package crypto provides the cipher primitives for vaultica.
//
// Stored secrets are protected with AES-256-GCM authenticated encryption
// under a single random master key owned by the keystore. Each encryption
// uses a fresh random nonce, and the resulting token carries everything
// needed for decryption.
//
// # Token format
//
// A token is base64url(nonce || ciphertext || tag). The nonce is prepended
// so a token is self-describing; decryption only needs the master key.
//
// # Example Usage
//
//	key, err := crypto.GenerateKey()
//
//	token, err := crypto.EncryptString(key, "hunter2")
//
//	plaintext, err := crypto.DecryptString(key, token)
//
//	// Securely wipe sensitive data
//	crypto.SecureWipe(key)
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"runtime"
)

const (
	// KeyLength is the length of the master key in bytes (256 bits).
	KeyLength = 32

	// NonceLength is the length of GCM nonces in bytes (96 bits).
	NonceLength = 12
)

// Sentinel errors returned by crypto functions.
var (
	// ErrInvalidKeyLength indicates the key is not 32 bytes.
	ErrInvalidKeyLength = errors.New("crypto: invalid key length, must be 32 bytes")

	// ErrDecryptionFailed indicates the token is malformed, was produced
	// under a different key, or failed integrity verification. The message
	// deliberately carries no detail about which.
	ErrDecryptionFailed = errors.New("crypto: decryption failed")
)

// GenerateKey returns a new cryptographically random 256-bit master key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("crypto: failed to generate key: %w", err)
	}
	return key, nil
}

// EncryptString encrypts plaintext under key and returns a self-describing
// token. A fresh random nonce is generated on every call, so encrypting the
// same plaintext twice yields different tokens.
func EncryptString(key []byte, plaintext string) (string, error) {
	if len(key) != KeyLength {
		return "", ErrInvalidKeyLength
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to create GCM: %w", err)
	}

	nonce := make([]byte, NonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("crypto: failed to generate nonce: %w", err)
	}

	// Seal appends the authentication tag; passing nonce as dst makes the
	// result nonce || ciphertext || tag in a single allocation.
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// DecryptString verifies and decrypts a token produced by EncryptString.
// Any malformed, foreign-key, or tampered token yields ErrDecryptionFailed;
// no partial plaintext is ever returned.
func DecryptString(key []byte, token string) (string, error) {
	if len(key) != KeyLength {
		return "", ErrInvalidKeyLength
	}

	blob, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("crypto: failed to create GCM: %w", err)
	}

	if len(blob) < NonceLength+gcm.Overhead() {
		return "", ErrDecryptionFailed
	}

	nonce := blob[:NonceLength]
	ciphertext := blob[NonceLength:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// SecureWipe overwrites a byte slice with zeros in a way that prevents
// compiler optimization from removing the operation.
// This is critical for securely destroying the master key.
func SecureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	// runtime.KeepAlive ensures the write operations are not optimized away
	// by the compiler since b is still "in use" after the loop.
	runtime.KeepAlive(b)
}
