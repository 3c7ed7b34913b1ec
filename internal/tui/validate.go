package tui

import (
	"regexp"
	"time"
	"unicode"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// validPassword enforces 6-32 characters containing at least one letter,
// one digit, and one non-alphanumeric symbol.
func validPassword(password string) bool {
	runes := []rune(password)
	if len(runes) < 6 || len(runes) > 32 {
		return false
	}
	var hasLetter, hasDigit, hasSymbol bool
	for _, r := range runes {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLetter && hasDigit && hasSymbol
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}
