// Package prompt validates numeric user input and asks for it interactively.
package prompt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Parse failure reasons.
const (
	ReasonNotANumber     = "not a number"
	ReasonNotPositive    = "must be > 0"
	ReasonNotNonNegative = "must be >= 0"
)

// ParseError describes rejected raw input.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid input %q: %s", e.Input, e.Reason)
}

// ParseNumber parses a finite real number from trimmed input.
func ParseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &ParseError{Input: raw, Reason: ReasonNotANumber}
	}
	return v, nil
}

// ParsePositiveNumber parses a number that must be > 0 (shares, cost, price).
func ParsePositiveNumber(raw string) (float64, error) {
	v, err := ParseNumber(raw)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, &ParseError{Input: raw, Reason: ReasonNotPositive}
	}
	return v, nil
}

// ParseNonNegativeNumber parses a number that must be >= 0 (target weights).
func ParseNonNegativeNumber(raw string) (float64, error) {
	v, err := ParseNumber(raw)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, &ParseError{Input: raw, Reason: ReasonNotNonNegative}
	}
	return v, nil
}
