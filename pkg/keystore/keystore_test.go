package keystore

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/vaultica/vaultica/pkg/crypto"
)

func TestInitializeCreatesKey(t *testing.T) {
	dir := t.TempDir()
	s := New(NewFileBackend(dir))

	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	key, err := s.Key()
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if len(key) != crypto.KeyLength {
		t.Errorf("key length = %d, want %d", len(key), crypto.KeyLength)
	}

	keyPath := filepath.Join(dir, KeyFileName)
	info, err := os.Stat(keyPath)
	if err != nil {
		t.Fatalf("key file not created: %v", err)
	}
	if runtime.GOOS != "windows" {
		if perm := info.Mode().Perm(); perm != FileMode {
			t.Errorf("key file permissions = %04o, want %04o", perm, FileMode)
		}
	}
}

func TestInitializeLoadsExistingKey(t *testing.T) {
	dir := t.TempDir()

	s1 := New(NewFileBackend(dir))
	if err := s1.Initialize(); err != nil {
		t.Fatalf("first Initialize failed: %v", err)
	}
	key1, _ := s1.Key()

	// A second store over the same directory must load the same key,
	// not generate a fresh one.
	s2 := New(NewFileBackend(dir))
	if err := s2.Initialize(); err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	key2, _ := s2.Key()

	if string(key1) != string(key2) {
		t.Error("reloaded key differs from original")
	}
}

func TestInitializeIdempotent(t *testing.T) {
	s := New(NewFileBackend(t.TempDir()))

	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	key1, _ := s.Key()

	if err := s.Initialize(); err != nil {
		t.Fatalf("repeated Initialize failed: %v", err)
	}
	key2, _ := s.Key()

	if string(key1) != string(key2) {
		t.Error("repeated Initialize changed the key")
	}
}

func TestKeyBeforeInitialize(t *testing.T) {
	s := New(NewFileBackend(t.TempDir()))

	if _, err := s.Key(); !errors.Is(err, ErrKeyUnavailable) {
		t.Errorf("Key before Initialize: got %v, want ErrKeyUnavailable", err)
	}
}

func TestInitializeCorruptedKeyFile(t *testing.T) {
	dir := t.TempDir()
	keyPath := filepath.Join(dir, KeyFileName)
	if err := os.WriteFile(keyPath, []byte("too short"), FileMode); err != nil {
		t.Fatalf("failed to write corrupted key: %v", err)
	}

	s := New(NewFileBackend(dir))
	if err := s.Initialize(); !errors.Is(err, ErrKeyCorrupted) {
		t.Errorf("Initialize with corrupted key: got %v, want ErrKeyCorrupted", err)
	}
}

func TestWipe(t *testing.T) {
	s := New(NewFileBackend(t.TempDir()))
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	s.Wipe()

	if _, err := s.Key(); !errors.Is(err, ErrKeyUnavailable) {
		t.Errorf("Key after Wipe: got %v, want ErrKeyUnavailable", err)
	}
}
