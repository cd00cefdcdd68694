package utils

import (
	"crypto/rand"   // secure random source for opaque tokens
	"crypto/sha256" // SHA-256 hashing for stored token digests
	"encoding/hex"  // hex encoding for token values
)

// RandomToken returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.  Session identifiers and password
// reset tokens both use 32 bytes, which is well past the 128 bits needed to
// make guessing infeasible.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// HashToken returns the SHA-256 hash of a raw token as a hex string.  Only
// the hash is stored server-side so a leaked table cannot be replayed as
// live reset tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
