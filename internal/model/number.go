package model

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Number is an optional numeric input field. It keeps the raw JSON text so that
// "absent" (zero, no error) can be told apart from "present but malformed"
// (InvalidInputError at evaluation time).
type Number struct {
	raw string
}

// Num builds a Number from its textual form, e.g. Num("500") or Num("12.50").
func Num(s string) Number { return Number{raw: s} }

// NumInt builds a Number from an integer.
func NumInt(n int64) Number { return Number{raw: decimal.NewFromInt(n).String()} }

// NumFloat builds a Number from a float.
func NumFloat(f float64) Number { return Number{raw: decimal.NewFromFloat(f).String()} }

// IsSet reports whether the field carried any value.
func (n Number) IsSet() bool { return strings.TrimSpace(n.raw) != "" }

// Raw returns the original text.
func (n Number) Raw() string { return n.raw }

// Bounds on accepted input. Amounts and follower counts above MaxNumber are
// rejected, as are literals whose exponent lies outside
// [minExponent, maxExponent]; comparing or rescaling such literals costs time
// proportional to the exponent.
const (
	MaxNumber   = 1_000_000_000_000
	maxExponent = 12
	minExponent = -20
)

var maxNumber = decimal.NewFromInt(MaxNumber)

// Decimal parses the value. Absent fields yield zero; anything present that is
// not a non-negative number no larger than MaxNumber yields an
// *InvalidInputError naming field.
func (n Number) Decimal(field string) (decimal.Decimal, error) {
	s := strings.TrimSpace(n.raw)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &InvalidInputError{Field: field, Value: n.raw, Reason: "not a number"}
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	if d.IsNegative() {
		return decimal.Zero, &InvalidInputError{Field: field, Value: n.raw, Reason: "must not be negative"}
	}
	if exp := d.Exponent(); exp > maxExponent || exp < minExponent {
		return decimal.Zero, &InvalidInputError{Field: field, Value: n.raw, Reason: "out of range"}
	}
	if d.GreaterThan(maxNumber) {
		return decimal.Zero, &InvalidInputError{Field: field, Value: n.raw, Reason: "out of range"}
	}
	return d, nil
}

// Count parses the value as a non-negative whole number. Decimal bounds the
// value well inside int64.
func (n Number) Count(field string) (int64, error) {
	d, err := n.Decimal(field)
	if err != nil {
		return 0, err
	}
	if !d.IsInteger() {
		return 0, &InvalidInputError{Field: field, Value: n.raw, Reason: "must be a whole number"}
	}
	return d.IntPart(), nil
}

// MarshalJSON writes the value back as a JSON number when it parses with a
// bounded exponent, and as a string otherwise, so malformed input survives a
// round trip unchanged without being expanded digit by digit.
func (n Number) MarshalJSON() ([]byte, error) {
	s := strings.TrimSpace(n.raw)
	if s == "" {
		return []byte("null"), nil
	}
	if d, err := decimal.NewFromString(s); err == nil {
		if exp := d.Exponent(); exp <= maxExponent && exp >= minExponent {
			return []byte(d.String()), nil
		}
	}
	return json.Marshal(n.raw)
}

// UnmarshalJSON never fails: validation is deferred to Decimal/Count so the
// engine, not the decoder, reports malformed input.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		n.raw = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			n.raw = string(data)
			return nil
		}
		n.raw = s
		if strings.TrimSpace(s) == "" {
			n.raw = ""
		}
	default:
		n.raw = string(data)
	}
	return nil
}
