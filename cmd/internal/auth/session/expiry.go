package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessExpiry returns the exp claim of a JWT access token without verifying
// its signature. Opaque or malformed tokens yield the zero time.
//
// The value is a scheduling hint only; the server stays authoritative.
func AccessExpiry(tok string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.UTC()
}

// expiryFor prefers the server's expires_in and falls back to the token itself.
func expiryFor(tok string, expiresIn int64, now time.Time) time.Time {
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second).UTC()
	}
	return AccessExpiry(tok)
}
