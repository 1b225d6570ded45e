package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, exp, err := tm.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry in the past")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Fatalf("user id = %q, want user-123", claims.UserID)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 60)
	other := NewTokenManager("secret-b", 60)

	token, _, err := tm.GenerateToken("user-123")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("token verified with wrong secret")
	}
}

func TestTokenGarbage(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	if _, err := tm.ParseToken("not-a-token"); err == nil {
		t.Fatal("garbage token accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter2", 4)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hash, "hunter2"); err != nil {
		t.Fatalf("compare: %v", err)
	}
	if err := ComparePassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
}
