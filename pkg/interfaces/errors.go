/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: errors.go
Description: Error taxonomy for the NFA reduction engine. Every fallible operation
returns a typed error carrying one of four kinds (file format, validation, I/O,
argument) so the CLI boundary can report failures uniformly. All kinds are fatal
at the point of detection; nothing is retried or silently ignored.
*/

package interfaces

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal error by its failure class
type Kind int

const (
	// KindFileFormat indicates a malformed automaton or weight-file syntax
	KindFileFormat Kind = iota
	// KindValidation indicates an out-of-range parameter or a reference to an
	// unknown automaton state
	KindValidation
	// KindIO indicates a missing or unreadable file or traffic source
	KindIO
	// KindArgument indicates an invalid CLI combination or missing positional
	// arguments
	KindArgument
)

// String returns a human-readable name for the error kind
func (k Kind) String() string {
	switch k {
	case KindFileFormat:
		return "file format error"
	case KindValidation:
		return "validation error"
	case KindIO:
		return "io error"
	case KindArgument:
		return "argument error"
	default:
		return "unknown error"
	}
}

// Error is the discriminated error type used across the engine
// Wraps an optional cause for errors raised at an I/O boundary
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the wrapped cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// FormatErrorf creates a new file-format error
func FormatErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindFileFormat, Msg: fmt.Sprintf(format, args...)}
}

// ValidationErrorf creates a new validation error
func ValidationErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// IOErrorf creates a new I/O error wrapping the underlying cause
func IOErrorf(err error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindIO, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ArgumentErrorf creates a new argument error
func ArgumentErrorf(format string, args ...interface{}) *Error {
	return &Error{Kind: KindArgument, Msg: fmt.Sprintf(format, args...)}
}

// IsKind reports whether err is (or wraps) an engine error of the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
