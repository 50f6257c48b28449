package domain

import (
	"strings"

	dErrors "fides/pkg/domain-errors"
)

// CountryCode is an ISO-3166 alpha-3 country code.
// Invariant: exactly three ASCII letters, stored upper-case.
type CountryCode string

// ParseCountryCode constructs a CountryCode from external input.
//
// Errors: returns CodeValidation when the value is not exactly three letters.
func ParseCountryCode(s string) (CountryCode, error) {
	if len(s) != 3 {
		return "", dErrors.New(dErrors.CodeValidation, "country code must be exactly 3 characters")
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return "", dErrors.New(dErrors.CodeValidation, "country code must be alphabetic")
		}
	}
	return CountryCode(strings.ToUpper(s)), nil
}

func (c CountryCode) String() string { return string(c) }

// Confidence is the 1-5 strength rating carried by a vouch.
type Confidence int

const (
	MinConfidence Confidence = 1
	MaxConfidence Confidence = 5
)

// ParseConfidence constructs a Confidence from external input.
//
// Errors: returns CodeValidation when the value is outside [1,5].
func ParseConfidence(v int) (Confidence, error) {
	c := Confidence(v)
	if c < MinConfidence || c > MaxConfidence {
		return 0, dErrors.New(dErrors.CodeValidation, "confidence must be between 1 and 5")
	}
	return c, nil
}

func (c Confidence) Int() int { return int(c) }
