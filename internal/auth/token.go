package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const sessionTokenBytes = 32 // 256 bits of entropy per session token

// GenerateSessionToken returns a fresh opaque session token. A new token is
// generated on every login so an attacker-fixated token never survives
// authentication.
func GenerateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashSessionToken returns the SHA-256 digest stored server-side. Only the
// hash ever touches the database; a leaked sessions table yields no usable
// cookies.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
