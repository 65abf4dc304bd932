package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// GenerateClientSecret returns a random opaque client secret.
func GenerateClientSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto: generate client secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSecret bcrypt-hashes a client secret for storage. Stored secrets must
// never be plaintext.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("crypto: hash secret: %w", err)
	}
	return string(hash), nil
}

// CompareSecret reports whether secret matches the bcrypt hash.
func CompareSecret(hash, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// GenerateOpaqueID returns a random opaque identifier suitable for a
// client_id or similar non-secret token.
func GenerateOpaqueID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto: generate opaque id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GenerateRandomToken returns a cryptographically random token with at
// least 256 bits of entropy, used for authorization codes.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("crypto: generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
