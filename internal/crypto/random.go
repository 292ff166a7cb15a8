package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// StateTokenBytes is the entropy of an OAuth state token before encoding.
const StateTokenBytes = 32

// GenerateStateToken creates a cryptographically secure random OAuth state
// token: 32 random bytes, hex-encoded to a 64-character string.
func GenerateStateToken() (string, error) {
	b := make([]byte, StateTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateSessionID creates a random identifier for a browser session.
// Base64 is deliberately avoided so the value is always cookie-safe.
func GenerateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
