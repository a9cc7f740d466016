package identity

import (
	"testing"
	"time"
)

func TestSessionToken_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tok, err := SignSessionToken("user-1", "technician", "Theo", "jti-1", secret, now, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	claims, err := VerifySessionToken(tok, secret, now.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject = %q, want user-1", claims.Subject)
	}
	if claims.ID != "jti-1" {
		t.Fatalf("jti = %q, want jti-1", claims.ID)
	}
	if claims.Role != "technician" {
		t.Fatalf("role = %q, want technician", claims.Role)
	}
}

func TestSessionToken_Expired(t *testing.T) {
	secret := []byte("test-secret")
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tok, err := SignSessionToken("user-1", "customer", "", "jti-2", secret, now, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := VerifySessionToken(tok, secret, now.Add(2*time.Hour)); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestSessionToken_WrongSecret(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tok, err := SignSessionToken("user-1", "admin", "", "jti-3", []byte("secret-a"), now, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := VerifySessionToken(tok, []byte("secret-b"), now); err == nil {
		t.Fatal("expected signature mismatch to be rejected")
	}
}

func TestSessionToken_Empty(t *testing.T) {
	if _, err := VerifySessionToken("", []byte("s"), time.Now()); err == nil {
		t.Fatal("expected empty token to be rejected")
	}
}
