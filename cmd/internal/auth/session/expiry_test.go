package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: "u1"}
	if !exp.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestAccessExpiry(t *testing.T) {
	exp := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	if got := AccessExpiry(signedToken(t, exp)); !got.Equal(exp) {
		t.Fatalf("exp=%v want=%v", got, exp)
	}
	if got := AccessExpiry(signedToken(t, time.Time{})); !got.IsZero() {
		t.Fatalf("no exp claim: got=%v", got)
	}
	if got := AccessExpiry("opaque-token"); !got.IsZero() {
		t.Fatalf("opaque: got=%v", got)
	}
}

func TestExpiryFor_PrefersExpiresIn(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tok := signedToken(t, now.Add(time.Hour))

	if got := expiryFor(tok, 60, now); !got.Equal(now.Add(time.Minute)) {
		t.Fatalf("got=%v", got)
	}
	if got := expiryFor(tok, 0, now); !got.Equal(now.Add(time.Hour)) {
		t.Fatalf("fallback got=%v", got)
	}
}
