package utils

import (
	"testing"
)

func TestHashPassword(t *testing.T) {
	password := "hunter2hunter2"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if hash == "" {
		t.Error("HashPassword() returned empty string")
	}

	if hash == password {
		t.Error("HashPassword() should not return plaintext password")
	}

	if len(hash) < 50 {
		t.Errorf("hash seems too short: %d chars", len(hash))
	}
}

func TestHashPassword_DifferentHashes(t *testing.T) {
	password := "samepassword"

	hash1, _ := HashPassword(password)
	hash2, _ := HashPassword(password)

	if hash1 == hash2 {
		t.Error("same password should produce different hashes (due to salt)")
	}
}

func TestCheckPassword(t *testing.T) {
	password := "correcthorse"
	hash, _ := HashPassword(password)

	tests := []struct {
		name     string
		password string
		expected bool
	}{
		{"correct password", "correcthorse", true},
		{"wrong password", "batterystaple", false},
		{"empty password", "", false},
		{"prefix password", "correcthors", false},
		{"case sensitive", "CorrectHorse", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckPassword(tt.password, hash)
			if result != tt.expected {
				t.Errorf("CheckPassword(%q) = %v, expected %v", tt.password, result, tt.expected)
			}
		})
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	if CheckPassword("password", "not_a_bcrypt_hash") {
		t.Error("CheckPassword should return false for invalid hash")
	}
}
