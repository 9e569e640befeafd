package seal

import "errors"

// Public, stable errors for callers.
var (
	ErrEmptyPassphrase = errors.New("seal: empty passphrase")
	ErrMalformed       = errors.New("seal: malformed sealed value")
	ErrDecrypt         = errors.New("seal: decryption failed")
)
