package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// refreshSecretBytes is the entropy of a refresh secret: 48 bytes = 384 bits.
const refreshSecretBytes = 48

// NewRefreshSecret generates a random refresh secret. The raw value is
// handed to the client exactly once; only its digest is ever stored.
func NewRefreshSecret() (secret string, digest string, err error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	secret = base64.RawURLEncoding.EncodeToString(buf)
	return secret, HashRefreshSecret(secret), nil
}

// HashRefreshSecret returns the hex-encoded SHA-256 digest of a refresh
// secret. Lookups and comparisons always use this digest, never the raw
// value.
func HashRefreshSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
