package token

import "errors"

// Public, stable errors for callers.
var (
	ErrInvalidURL = errors.New("invalid url")
)
