package keystore

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// KeyFileName is the master key file inside the vault directory.
	KeyFileName = "vault.key"

	// FileMode restricts the key file to the owning user.
	FileMode = 0600

	// DirMode restricts the vault directory to the owning user.
	DirMode = 0700
)

// FileBackend stores the raw master key in a file inside the vault
// directory, owner-readable only.
type FileBackend struct {
	dir      string
	warnings []string
}

// NewFileBackend creates a file backend rooted at the vault directory.
func NewFileBackend(dir string) *FileBackend {
	return &FileBackend{dir: dir}
}

func (b *FileBackend) path() string {
	return filepath.Join(b.dir, KeyFileName)
}

// Load reads the persisted key, or returns (nil, nil) when no key file
// exists yet.
func (b *FileBackend) Load() ([]byte, error) {
	key, err := os.ReadFile(b.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("keystore: failed to read key file: %w", err)
	}

	// Best-effort tightening for key files created by older tools with
	// looser permissions. Failure is a warning, not a hard error.
	if info, statErr := os.Stat(b.path()); statErr == nil {
		if perm := info.Mode().Perm(); perm&0077 != 0 {
			if chmodErr := os.Chmod(b.path(), FileMode); chmodErr != nil {
				b.warnings = append(b.warnings, fmt.Sprintf(
					"key file has insecure permissions %04o and tightening failed: %v", perm, chmodErr))
			} else {
				b.warnings = append(b.warnings, fmt.Sprintf(
					"key file had insecure permissions %04o, tightened to %04o", perm, FileMode))
			}
		}
	}

	return key, nil
}

// Save writes the key with a temp-file-then-rename so a crash mid-write
// never leaves a truncated key file behind.
func (b *FileBackend) Save(key []byte) error {
	if err := os.MkdirAll(b.dir, DirMode); err != nil {
		return fmt.Errorf("keystore: failed to create vault directory: %w", err)
	}

	tempPath := b.path() + ".tmp"
	if err := os.WriteFile(tempPath, key, FileMode); err != nil {
		return fmt.Errorf("keystore: failed to write key file: %w", err)
	}

	if err := os.Rename(tempPath, b.path()); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("keystore: failed to commit key file: %w", err)
	}

	return nil
}

// Warnings returns best-effort outcomes collected during Load/Save.
func (b *FileBackend) Warnings() []string {
	return b.warnings
}
