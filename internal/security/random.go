package security

import (
	"crypto/rand"
	"encoding/hex"
)

// NewSessionToken generates a 256-bit random opaque token, hex-encoded.
// Refresh sessions are identified by this string, not by a signed structure,
// so revocation takes effect immediately regardless of any embedded expiry.
func NewSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
