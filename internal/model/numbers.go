package model

import (
	"bufio"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// ReadNumbers reads a newline-delimited list of phone numbers. Lines are kept
// verbatim (only a trailing carriage return is dropped); blank lines and
// duplicates are preserved.
func ReadNumbers(r io.Reader) ([]PhoneNumber, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var numbers []PhoneNumber
	for sc.Scan() {
		numbers = append(numbers, PhoneNumber(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "model: scan numbers")
	}
	return numbers, nil
}

// ReadNumbersFile opens path and reads it with ReadNumbers.
func ReadNumbersFile(path string) ([]PhoneNumber, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "model: open numbers file %s", path)
	}
	defer f.Close() //nolint:errcheck

	return ReadNumbers(f)
}
