package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// LinkTokenBytes is the entropy of tokens mailed in reset and verification
// links.
const LinkTokenBytes = 32

// NewLinkToken returns a random base64url token for an emailed link and
// the fingerprint the database keeps instead of it.
func NewLinkToken() (token, fingerprint string, err error) {
	buf := make([]byte, LinkTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate link token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(buf)
	return token, FingerprintToken(token), nil
}

// FingerprintToken is the SHA-256 of token, base64url encoded (43 chars).
// Lookups by a submitted token compare fingerprints so a database leak does
// not expose usable links.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
