package model

import "fmt"

// InvalidInputError reports a field that is present but cannot be used:
// non-numeric amounts, negative or fractional follower counts, and enum values
// outside their allowed set. Absent fields never produce it.
type InvalidInputError struct {
	Field  string
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input %s=%q: %s", e.Field, e.Value, e.Reason)
}
