package token

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
)

const (
	// fingerprintLen is the number of hex chars kept from the digest.
	fingerprintLen = 12

	// Mask replaces secret query values in redacted URLs.
	Mask = "***"
)

// secretParams are query keys whose values are credentials.
var secretParams = []string{"token", "access_token", "refresh_token"}

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Fingerprint returns a short, log-safe identifier for a token.
// The empty token has the empty fingerprint.
func Fingerprint(tok string) string {
	if tok == "" {
		return ""
	}
	return HashSHA256Hex(tok)[:fingerprintLen]
}

// RedactURL masks credential query parameters in raw.
func RedactURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	q := u.Query()
	changed := false
	for _, k := range secretParams {
		if q.Has(k) {
			q.Set(k, Mask)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}
