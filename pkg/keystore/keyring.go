package keystore

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "vaultica"
	keyringUser    = "master-key"
)

// KeyringBackend stores the master key in the OS keyring (Keychain on
// macOS, Secret Service on Linux, Credential Manager on Windows). The key
// is base64-encoded since keyring entries are strings.
type KeyringBackend struct{}

// NewKeyringBackend creates an OS keyring backend.
func NewKeyringBackend() *KeyringBackend {
	return &KeyringBackend{}
}

// Load retrieves the key from the OS keyring, or returns (nil, nil) when no
// entry exists yet.
func (b *KeyringBackend) Load() ([]byte, error) {
	encoded, err := keyring.Get(keyringService, keyringUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("keystore: failed to read key from keyring: %w", err)
	}

	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrKeyCorrupted
	}
	return key, nil
}

// Save stores the key in the OS keyring. The keyring itself is responsible
// for at-rest protection and atomicity.
func (b *KeyringBackend) Save(key []byte) error {
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := keyring.Set(keyringService, keyringUser, encoded); err != nil {
		return fmt.Errorf("keystore: failed to store key in keyring: %w", err)
	}
	return nil
}
