package config

import (
	"errors"
	"os"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxCountryCodeLen is the width of the country_code column in the summary sink.
const MaxCountryCodeLen = 2

var (
	// ErrOutputExists is returned when the output artifact is already present.
	ErrOutputExists = eris.New("output file already exists")
	// ErrCountryCode is returned for a country code longer than MaxCountryCodeLen.
	ErrCountryCode = eris.New("country code must be at most 2 characters")
)

// CheckOutputPath fails when path already exists so a previous run's results
// are never overwritten.
func CheckOutputPath(path string) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return eris.Wrapf(ErrOutputExists, "config: %s", path)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return eris.Wrapf(err, "config: stat %s", path)
	}
}

// NormalizeCountryCode checks the length of code and upper-cases it.
func NormalizeCountryCode(code string) (string, error) {
	if utf8.RuneCountInString(code) > MaxCountryCodeLen {
		return "", eris.Wrapf(ErrCountryCode, "config: got %q", code)
	}
	return cases.Upper(language.Und).String(code), nil
}
