package security

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid mixed case", "Passw0rd", false},
		{"valid minimum length", "Abcdefgh", false},
		{"valid long", "CorrectHorseBatteryStaple", false},
		{"too short", "Abcdefg", true},
		{"empty", "", true},
		{"no uppercase", "password123", true},
		{"no lowercase", "PASSWORD123", true},
		{"digits only", "12345678", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrWeakPassword) {
					t.Errorf("ValidatePassword(%q) = %v, want ErrWeakPassword", tt.password, err)
				}
			} else if err != nil {
				t.Errorf("ValidatePassword(%q) = %v, want nil", tt.password, err)
			}
		})
	}
}

func TestStrength(t *testing.T) {
	tests := []struct {
		password string
		want     PasswordStrength
	}{
		{"abc", PasswordWeak},
		{"Abcdefgh", PasswordFair},
		{"Abcdefghijklmn", PasswordGood},
		{"AbcdefghijklmnopqrstU", PasswordStrong},
	}

	for _, tt := range tests {
		if got := Strength(tt.password); got != tt.want {
			t.Errorf("Strength(%q) = %v, want %v", tt.password, got, tt.want)
		}
	}
}

func TestNormalizeAnswer(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"case insensitive", "Fluffy", "fluffy"},
		{"surrounding whitespace", "  Fluffy  ", "fluffy"},
		{"uppercase", "FLUFFY", "fluffy"},
		{"unicode case folding", "Straße", "strasse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if NormalizeAnswer(tt.a) != NormalizeAnswer(tt.b) {
				t.Errorf("NormalizeAnswer(%q) != NormalizeAnswer(%q)", tt.a, tt.b)
			}
		})
	}
}

func TestCheckAnswerSet(t *testing.T) {
	tests := []struct {
		name    string
		answers []string
		wantErr bool
	}{
		{"all distinct", []string{"fluffy", "smith", "springfield"}, false},
		{"single answer", []string{"fluffy"}, false},
		{"exact duplicate", []string{"fluffy", "fluffy"}, true},
		{"case-folded duplicate", []string{"Fluffy", "FLUFFY"}, true},
		{"whitespace duplicate", []string{"fluffy", "  fluffy  "}, true},
		{"duplicate among distinct", []string{"a1", "b2", "A1"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAnswerSet(tt.answers)
			if tt.wantErr {
				if !errors.Is(err, ErrDuplicateAnswer) {
					t.Errorf("CheckAnswerSet(%v) = %v, want ErrDuplicateAnswer", tt.answers, err)
				}
			} else if err != nil {
				t.Errorf("CheckAnswerSet(%v) = %v, want nil", tt.answers, err)
			}
		})
	}
}

func TestGeneratePassword(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantErr bool
	}{
		{"minimum", GeneratedMinLength, false},
		{"maximum", GeneratedMaxLength, false},
		{"typical", 20, false},
		{"below minimum", GeneratedMinLength - 1, true},
		{"above maximum", GeneratedMaxLength + 1, true},
		{"zero", 0, true},
		{"negative", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			password, err := GeneratePassword(tt.length)
			if tt.wantErr {
				if !errors.Is(err, ErrGeneratedLength) {
					t.Errorf("GeneratePassword(%d) = %v, want ErrGeneratedLength", tt.length, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("GeneratePassword(%d) failed: %v", tt.length, err)
			}
			if len(password) != tt.length {
				t.Errorf("generated length = %d, want %d", len(password), tt.length)
			}

			charset := charsetLowercase + charsetUppercase + charsetDigits + charsetSymbols
			for _, c := range password {
				if !strings.ContainsRune(charset, c) {
					t.Errorf("generated password contains %q outside the charset", c)
				}
			}
		})
	}
}

func TestGeneratePasswordUnique(t *testing.T) {
	p1, err := GeneratePassword(20)
	if err != nil {
		t.Fatalf("GeneratePassword failed: %v", err)
	}
	p2, err := GeneratePassword(20)
	if err != nil {
		t.Fatalf("GeneratePassword failed: %v", err)
	}
	if p1 == p2 {
		t.Error("two generated passwords are identical")
	}
}
