package session

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Initials derives up to two uppercase initials from a full name:
// first and last word for multi-word names, the first letter otherwise.
func Initials(fullName string) string {
	parts := strings.Fields(fullName)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return upperFirst(parts[0])
	default:
		return upperFirst(parts[0]) + upperFirst(parts[len(parts)-1])
	}
}

func upperFirst(word string) string {
	r, _ := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return ""
	}
	return string(unicode.ToUpper(r))
}
