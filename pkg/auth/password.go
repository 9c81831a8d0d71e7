package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier hashes and checks passwords with bcrypt.
type CredentialVerifier struct {
	cost int
}

// NewCredentialVerifier returns a verifier using cost, or bcrypt.DefaultCost
// when cost is outside bcrypt's accepted range.
func NewCredentialVerifier(cost int) *CredentialVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialVerifier{cost: cost}
}

// Hash returns the bcrypt digest of plaintext.
func (v *CredentialVerifier) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), v.cost)
}

// Verify reports whether plaintext matches digest. Malformed digests never match.
func (v *CredentialVerifier) Verify(plaintext string, digest []byte) bool {
	return bcrypt.CompareHashAndPassword(digest, []byte(plaintext)) == nil
}
