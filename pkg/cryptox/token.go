package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url encoded (43 chars). Used wherever a secret-ish value has to be
// looked up or logged without storing it verbatim.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// TokensEqual compares two tokens in constant time with respect to their
// contents. Both are fingerprinted first so differing lengths leak nothing.
func TokensEqual(a, b string) bool {
	fa := FingerprintToken(a)
	fb := FingerprintToken(b)
	return subtle.ConstantTimeCompare([]byte(fa), []byte(fb)) == 1
}
