package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateToken returns an opaque URL-safe random token (32 bytes of entropy).
// Used for registration check-in tokens.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
