package session

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")

	// ErrNotAuthenticated is returned by Token when no access token is held.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrStoreClosed is returned by stores used after Close.
	ErrStoreClosed = errors.New("token store closed")
)

// AuthError is a failed login or registration. Message is safe to show to
// the user; Err keeps the underlying cause.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }
