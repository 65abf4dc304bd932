package store

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey computes the hex-encoded SHA-256 digest used as the Store key for
// access tokens and the credential index. It is the only place in the
// gateway that should compute these hashes.
func HashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
