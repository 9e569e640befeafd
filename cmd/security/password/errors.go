package password

import "errors"

// Public, stable errors for callers.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrMissingLetter    = errors.New("password must contain a letter")
	ErrMissingDigit     = errors.New("password must contain a digit")
	ErrWeakPassword     = errors.New("weak password")
	ErrInvalidSalt      = errors.New("invalid salt")
)
