package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateKey(t *testing.T) {
	key1, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if len(key1) != KeyLength {
		t.Errorf("key length = %d, want %d", len(key1), KeyLength)
	}

	key2, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if string(key1) == string(key2) {
		t.Error("two generated keys are identical")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"simple", "hunter2"},
		{"empty", ""},
		{"unicode", "pässwörd-日本語-🔑"},
		{"long", strings.Repeat("a", 4096)},
		{"whitespace", "  spaces and\ttabs\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := EncryptString(key, tt.plaintext)
			if err != nil {
				t.Fatalf("EncryptString failed: %v", err)
			}

			got, err := DecryptString(key, token)
			if err != nil {
				t.Fatalf("DecryptString failed: %v", err)
			}
			if got != tt.plaintext {
				t.Errorf("round trip = %q, want %q", got, tt.plaintext)
			}
		})
	}
}

func TestEncryptProducesUniqueTokens(t *testing.T) {
	key, _ := GenerateKey()

	token1, err := EncryptString(key, "same plaintext")
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}
	token2, err := EncryptString(key, "same plaintext")
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}

	if token1 == token2 {
		t.Error("encrypting the same plaintext twice produced identical tokens (nonce reuse)")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	key1, _ := GenerateKey()
	key2, _ := GenerateKey()

	token, err := EncryptString(key1, "secret")
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}

	if _, err := DecryptString(key2, token); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("decrypt with wrong key: got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptTamperedToken(t *testing.T) {
	key, _ := GenerateKey()

	token, err := EncryptString(key, "secret")
	if err != nil {
		t.Fatalf("EncryptString failed: %v", err)
	}

	// Flip one character of the base64 payload
	tampered := []byte(token)
	if tampered[len(tampered)/2] == 'A' {
		tampered[len(tampered)/2] = 'B'
	} else {
		tampered[len(tampered)/2] = 'A'
	}

	if _, err := DecryptString(key, string(tampered)); !errors.Is(err, ErrDecryptionFailed) {
		t.Errorf("decrypt tampered token: got %v, want ErrDecryptionFailed", err)
	}
}

func TestDecryptMalformedToken(t *testing.T) {
	key, _ := GenerateKey()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!!not-base64!!!"},
		{"too short", "YWJj"}, // 3 bytes, shorter than nonce+tag
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecryptString(key, tt.token); !errors.Is(err, ErrDecryptionFailed) {
				t.Errorf("got %v, want ErrDecryptionFailed", err)
			}
		})
	}
}

func TestEncryptInvalidKeyLength(t *testing.T) {
	if _, err := EncryptString([]byte("short"), "secret"); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("got %v, want ErrInvalidKeyLength", err)
	}
	if _, err := DecryptString([]byte("short"), "token"); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("got %v, want ErrInvalidKeyLength", err)
	}
}

func TestSecureWipe(t *testing.T) {
	key := []byte{1, 2, 3, 4, 5}
	SecureWipe(key)
	for i, b := range key {
		if b != 0 {
			t.Errorf("byte %d not wiped: %d", i, b)
		}
	}
}
