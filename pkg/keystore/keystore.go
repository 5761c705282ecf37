// Package keystore owns the vault's single master key: it creates the key on
// first use, persists it, and loads it on every subsequent run. The key never
// leaves the engine boundary; losing it permanently voids all stored secrets.
package keystore

import (
	"errors"
	"fmt"

	"github.com/vaultica/vaultica/pkg/crypto"
)

// Errors
var (
	// ErrKeyUnavailable indicates Key was called before Initialize.
	ErrKeyUnavailable = errors.New("keystore: master key unavailable, keystore not initialized")

	// ErrKeyCorrupted indicates persisted key material has the wrong length.
	ErrKeyCorrupted = errors.New("keystore: persisted key material is corrupted")
)

// Backend persists raw master-key material.
type Backend interface {
	// Load returns the persisted key material, or (nil, nil) when no key
	// has been persisted yet.
	Load() ([]byte, error)

	// Save persists key material. Save must be atomic with respect to
	// crashes: a failed save leaves any previous key intact.
	Save(key []byte) error
}

// Store manages the master key lifecycle over a Backend.
type Store struct {
	backend  Backend
	key      []byte
	warnings []string
}

// New creates a Store over the given backend. No I/O happens until
// Initialize is called.
func New(backend Backend) *Store {
	return &Store{backend: backend}
}

// Initialize loads the persisted master key, generating and persisting a new
// one if none exists. It is idempotent across runs: once key material exists,
// every Initialize yields the byte-identical key.
func (s *Store) Initialize() error {
	if s.key != nil {
		return nil
	}

	key, err := s.backend.Load()
	if err != nil {
		return fmt.Errorf("keystore: failed to load key: %w", err)
	}

	if key == nil {
		key, err = crypto.GenerateKey()
		if err != nil {
			return err
		}
		if err := s.backend.Save(key); err != nil {
			return fmt.Errorf("keystore: failed to persist key: %w", err)
		}
	} else if len(key) != crypto.KeyLength {
		return ErrKeyCorrupted
	}

	if w, ok := s.backend.(interface{ Warnings() []string }); ok {
		s.warnings = w.Warnings()
	}

	s.key = key
	return nil
}

// Key returns the active master key. It fails with ErrKeyUnavailable when
// called before Initialize.
func (s *Store) Key() ([]byte, error) {
	if s.key == nil {
		return nil, ErrKeyUnavailable
	}
	return s.key, nil
}

// Warnings reports best-effort outcomes collected during Initialize, such as
// a permission tightening that could not be applied. These are advisory and
// never accompany a hard failure.
func (s *Store) Warnings() []string {
	return s.warnings
}

// Wipe destroys the in-memory copy of the master key. The persisted key is
// untouched; a later Initialize reloads it.
func (s *Store) Wipe() {
	if s.key != nil {
		crypto.SecureWipe(s.key)
		s.key = nil
	}
}
