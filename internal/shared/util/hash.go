package util

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the hex SHA-256 of s. Used to correlate prompts in logs
// without writing them out.
func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// ShortDigest is the first 12 hex characters of Digest.
func ShortDigest(s string) string {
	return Digest(s)[:12]
}
