package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrValidation        = errors.New("validation error")
	ErrMalformedLine     = errors.New("malformed line")
	ErrFixpointExhausted = errors.New("fixpoint iteration limit exhausted")
	ErrUnknownEncoding   = errors.New("unknown text encoding")
)

// LineError reports a format violation at a specific 1-based line of an input file.
type LineError struct {
	Line   int
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *LineError) Unwrap() error { return ErrMalformedLine }

// NewLineError creates a LineError.
func NewLineError(line int, reason string) *LineError {
	return &LineError{Line: line, Reason: reason}
}
