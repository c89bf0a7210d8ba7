package model

import (
	"github.com/rotisserie/eris"
)

// PhoneNumber is an opaque lookup key. Two numbers are the same number only
// when the strings are identical; no normalization is applied anywhere.
type PhoneNumber string

// OutcomeCode classifies a single vendor lookup.
type OutcomeCode string

const (
	// CodeMatched means the vendor returned a name for the number.
	CodeMatched OutcomeCode = "M"
	// CodeNotMatched means the vendor answered but had no identity.
	CodeNotMatched OutcomeCode = "NM"
	// CodeFailed means the call errored or returned a non-success status.
	CodeFailed OutcomeCode = "F"
	// CodeNameUnavailableRepOnly is the hiya soft match: a record exists but
	// only a representative number is known.
	CodeNameUnavailableRepOnly OutcomeCode = "RO_NU"
	// CodeNoNameRepOnly is the yelp soft match.
	CodeNoNameRepOnly OutcomeCode = "RO_NN"
)

var outcomeLabels = map[OutcomeCode]string{
	CodeMatched:                "Matched",
	CodeNotMatched:             "Not Matched",
	CodeFailed:                 "Failed",
	CodeNameUnavailableRepOnly: "Name Unavailable, Rep Only(?)",
	CodeNoNameRepOnly:          "No Name, Rep Only(?)",
}

// Label returns the human readable description of the code.
func (c OutcomeCode) Label() string {
	if l, ok := outcomeLabels[c]; ok {
		return l
	}
	return string(c)
}

// IsMatched reports whether the code counts as a match. Soft matches do not.
func (c OutcomeCode) IsMatched() bool {
	return c == CodeMatched
}

// IsSoftMatch reports whether the code is one of the rep-only variants.
func (c OutcomeCode) IsSoftMatch() bool {
	return c == CodeNameUnavailableRepOnly || c == CodeNoNameRepOnly
}

// ParseOutcomeCode converts a stored code back to an OutcomeCode.
func ParseOutcomeCode(s string) (OutcomeCode, error) {
	c := OutcomeCode(s)
	if _, ok := outcomeLabels[c]; !ok {
		return "", eris.Errorf("model: unknown outcome code %q", s)
	}
	return c, nil
}

// Outcome is the classified result of one vendor lookup for one number.
type Outcome struct {
	Number     PhoneNumber `json:"number"`
	Code       OutcomeCode `json:"code"`
	Name       string      `json:"name"`
	Confidence *string     `json:"confidence,omitempty"`
}

// MatchedOutcome builds a Matched outcome carrying name.
func MatchedOutcome(number PhoneNumber, name string) Outcome {
	return Outcome{Number: number, Code: CodeMatched, Name: name}
}

// NotMatchedOutcome builds a NotMatched outcome.
func NotMatchedOutcome(number PhoneNumber) Outcome {
	return Outcome{Number: number, Code: CodeNotMatched}
}

// FailedOutcome builds a Failed outcome.
func FailedOutcome(number PhoneNumber) Outcome {
	return Outcome{Number: number, Code: CodeFailed}
}

// SoftOutcome builds a rep-only outcome with the given soft code.
func SoftOutcome(number PhoneNumber, code OutcomeCode) Outcome {
	return Outcome{Number: number, Code: code}
}

// WithConfidence returns a copy of o carrying confidence.
func (o Outcome) WithConfidence(confidence string) Outcome {
	o.Confidence = &confidence
	return o
}
