package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Validate checks a registration password against the policy before it is
// sent to the CRM. Lengths count runes.
func (p Policy) Validate(password string) error {
	n := utf8.RuneCountInString(password)

	if n < p.MinLength {
		return ErrPasswordTooShort
	}
	if n > p.MaxLength {
		return ErrPasswordTooLong
	}

	if p.RequireLetter && !strings.ContainsFunc(password, isASCIILetter) {
		return ErrMissingLetter
	}
	if p.RequireDigit && !strings.ContainsFunc(password, isASCIIDigit) {
		return ErrMissingDigit
	}

	if p.RejectVeryWeak && looksVeryWeak(password) {
		return ErrWeakPassword
	}
	return nil
}

func isASCIILetter(r rune) bool { return r < unicode.MaxASCII && unicode.IsLetter(r) }

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

// trivialPasswords are rejected regardless of length.
var trivialPasswords = map[string]struct{}{
	"password": {}, "password123": {}, "senha123": {}, "leadflow": {},
	"123456": {}, "123456789": {}, "qwerty": {}, "qwerty123": {}, "11111111": {},
}

// looksVeryWeak catches trivial patterns only; it is not a strength estimator.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}
	if _, ok := trivialPasswords[strings.ToLower(s)]; ok {
		return true
	}

	// One repeated rune.
	first, _ := utf8.DecodeRuneInString(s)
	if strings.Trim(s, string(first)) == "" {
		return true
	}

	// PIN-like.
	digitsOnly := !strings.ContainsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	return digitsOnly && utf8.RuneCountInString(s) < 12
}
