package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestCredentialVerifier(t *testing.T) {
	v := NewCredentialVerifier(bcrypt.MinCost)

	hash, err := v.Hash("secret1")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if string(hash) == "secret1" {
		t.Fatal("Hash() returned the plaintext")
	}
	if !v.Verify("secret1", hash) {
		t.Error("Verify() rejected the right password")
	}
	if v.Verify("secret2", hash) {
		t.Error("Verify() accepted a wrong password")
	}
	if v.Verify("secret1", []byte("not-a-bcrypt-hash")) {
		t.Error("Verify() accepted a malformed digest")
	}
}

func TestNewCredentialVerifier_CostFallback(t *testing.T) {
	if got := NewCredentialVerifier(0).cost; got != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.DefaultCost)
	}
	if got := NewCredentialVerifier(bcrypt.MaxCost + 1).cost; got != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", got, bcrypt.DefaultCost)
	}
}
