package waterfall

import (
	"github.com/rotisserie/eris"
)

// ErrInvalidMode is returned for a waterfall flag other than "on" or "off".
var ErrInvalidMode = eris.New("waterfall mode must be \"on\" or \"off\"")

// Mode controls whether later sources only see numbers earlier sources left
// unmatched.
type Mode string

const (
	// ModeOn shrinks the candidate set after every source.
	ModeOn Mode = "on"
	// ModeOff queries every source with the full input list.
	ModeOff Mode = "off"
)

// ParseMode accepts exactly the literals "on" and "off".
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOn, ModeOff:
		return Mode(s), nil
	default:
		return "", eris.Wrapf(ErrInvalidMode, "waterfall: got %q", s)
	}
}

// Enabled reports whether candidate reduction is on.
func (m Mode) Enabled() bool {
	return m == ModeOn
}
