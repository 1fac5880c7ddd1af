package validation

import (
	"errors"
	"strings"
	"unicode"
)

// Input bounds in runes. City names come from RPC callers; global ids are
// numeric city identifiers.
const (
	maxCityRunes     = 80
	maxGlobalIDRunes = 12
)

// ErrCityEmpty is returned when the city is empty or whitespace-only after trim.
var ErrCityEmpty = errors.New("city is required")

// ErrCityTooLong is returned when the city length exceeds the maximum.
var ErrCityTooLong = errors.New("city too long")

// ErrCityInvalidChars is returned when the city contains disallowed characters.
var ErrCityInvalidChars = errors.New("city contains invalid characters")

// ErrGlobalIDEmpty is returned when the global id is empty after trim.
var ErrGlobalIDEmpty = errors.New("global id is required")

// ErrGlobalIDInvalid is returned when the global id is not an all-digit string.
var ErrGlobalIDInvalid = errors.New("global id must be numeric")

// ValidateCity trims the input, enforces the length bound (runes), and
// restricts to allowed characters: letters (Unicode), digits, space, comma,
// hyphen, period, apostrophe and parentheses. Periods and parentheses appear
// in island locality names. Returns the trimmed string; lowercasing is left
// to the catalog lookup.
func ValidateCity(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrCityEmpty
	}
	if n > maxCityRunes {
		return "", ErrCityTooLong
	}
	for _, c := range r {
		if !isAllowedCityRune(c) {
			return "", ErrCityInvalidChars
		}
	}
	return s, nil
}

// isAllowedCityRune returns true for letters (Unicode), digits, space, comma,
// hyphen, period, apostrophe and parentheses.
func isAllowedCityRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '-', '.', '\'', '(', ')':
		return true
	}
	return false
}

// ValidateGlobalID trims the input and requires a non-empty all-digit string
// within the length bound. Returns the trimmed string.
func ValidateGlobalID(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	n := len(r)
	if n == 0 {
		return "", ErrGlobalIDEmpty
	}
	if n > maxGlobalIDRunes {
		return "", ErrGlobalIDInvalid
	}
	for _, c := range r {
		if c < '0' || c > '9' {
			return "", ErrGlobalIDInvalid
		}
	}
	return s, nil
}
