package realtime

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidEndpoint is returned when no socket URL can be derived.
var ErrInvalidEndpoint = errors.New("invalid realtime endpoint")

const (
	restPathSuffix = "/api/v1"
	socketPath     = "/api/v1/ws"
)

// Endpoint derives the socket URL from the REST base:
// http becomes ws and https becomes wss, a trailing /api/v1 is dropped,
// then /api/v1/ws?token=<access> is appended.
func Endpoint(apiBase, accessToken string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(apiBase))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("%w: scheme %q", ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}
	if accessToken == "" {
		return "", fmt.Errorf("%w: missing token", ErrInvalidEndpoint)
	}

	p := strings.TrimRight(u.Path, "/")
	p = strings.TrimSuffix(p, restPathSuffix)
	u.Path = p + socketPath
	u.RawPath = ""
	u.Fragment = ""
	u.RawQuery = url.Values{"token": {accessToken}}.Encode()
	return u.String(), nil
}
