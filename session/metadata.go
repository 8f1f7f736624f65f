package session

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// GenerateSalt returns a cryptographically secure 32-byte salt, base64url
// encoded without padding.
func GenerateSalt() (string, error) {
	const saltSize = 32
	saltBytes := make([]byte, saltSize)

	if _, err := rand.Read(saltBytes); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(saltBytes), nil
}