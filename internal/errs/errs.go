// Package errs holds the error taxonomy shared by the extraction engine.
package errs

import (
	"errors"
	"fmt"
)

// NotFoundError means a required boundary or label is absent from the input.
type NotFoundError struct {
	What  string // e.g. "start label", "end label", "column"
	Label string
	Where string
}

func (e *NotFoundError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("%s %q not found", e.What, e.Label)
	}
	return fmt.Sprintf("%s %q not found in %s", e.What, e.Label, e.Where)
}

// RangeError means a computed cursor or index falls outside the input.
type RangeError struct {
	Index int
	Len   int
	What  string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [0, %d)", e.What, e.Index, e.Len)
}

// ParseError means a date or amount token could not be parsed. Callers
// always recover from it with a sentinel.
type ParseError struct {
	Input string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %q", e.Input)
	}
	return fmt.Sprintf("parse %q: %v", e.Input, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError means a section configuration is malformed. It is a
// programming or config mistake and is returned immediately.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsNotFound reports whether err wraps a *NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsRange reports whether err wraps a *RangeError.
func IsRange(err error) bool {
	var re *RangeError
	return errors.As(err, &re)
}

// IsValidation reports whether err wraps a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
