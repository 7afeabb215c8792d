package rules

import (
	"errors"
	"fmt"
)

// Violation is the first event a rule rejected.
type Violation struct {
	Kind      Kind
	Signal    string
	Timestamp int64

	// Message is the diagnostic shown to the student, e.g. "9 not allowed".
	Message string
}

// Error implements the error interface.
func (v *Violation) Error() string {
	return v.Message
}

// IsViolation reports whether err is, or wraps, a *Violation.
func IsViolation(err error) bool {
	var v *Violation
	return errors.As(err, &v)
}

// ParseError is returned in Strict mode for rule text that does not parse.
type ParseError struct {
	// Line is the 1-based line number within the parsed text, or 0 when a
	// single rule was parsed on its own.
	Line int

	// Fragment is the offending rule line or SIGTIMING pair.
	Fragment string

	// Reason says what was wrong with Fragment.
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Fragment)
	}
	return fmt.Sprintf("%s: %q", e.Reason, e.Fragment)
}
