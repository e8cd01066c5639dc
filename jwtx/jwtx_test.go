package jwtx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestExpiry(t *testing.T) {
	want := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	raw := signedToken(t, jwt.MapClaims{"sub": "user-1", "exp": want.Unix()})

	got, ok := Expiry(raw)
	if !ok {
		t.Fatal("Expiry reported no exp claim")
	}
	if !got.Equal(want) {
		t.Fatalf("expiry = %v, want %v", got, want)
	}
}

func TestExpiryMissingClaim(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{"sub": "user-1"})

	if _, ok := Expiry(raw); ok {
		t.Fatal("Expiry reported ok for token without exp")
	}
}

func TestExpiryNotAJWT(t *testing.T) {
	if _, ok := Expiry("opaque-session-token"); ok {
		t.Fatal("Expiry reported ok for non-JWT token")
	}
}

func TestSubject(t *testing.T) {
	raw := signedToken(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(time.Minute).Unix()})

	if got := Subject(raw); got != "user-1" {
		t.Fatalf("subject = %q, want user-1", got)
	}
	if got := Subject("garbage"); got != "" {
		t.Fatalf("subject of garbage = %q, want empty", got)
	}
}
