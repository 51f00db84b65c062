package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedFormat is the cause when a line does not match the access log grammar
	ErrUnrecognizedFormat = errors.New("unrecognized log format")
	ErrInvalidStatus      = errors.New("invalid status code")
	ErrInvalidBytes       = errors.New("invalid byte count")
	ErrInvalidTimestamp   = errors.New("invalid timestamp")
)

// MalformedLineError reports a non-blank line that could not be parsed.
// Line is the 1-based source position, or 0 when the line was parsed on its own.
type MalformedLineError struct {
	Source string
	Line   int
	Raw    string
	Err    error
}

func (e *MalformedLineError) Error() string {
	switch {
	case e.Source != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %v: %q", e.Source, e.Line, e.Err, e.Raw)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Raw)
	default:
		return fmt.Sprintf("%v: %q", e.Err, e.Raw)
	}
}

func (e *MalformedLineError) Unwrap() error {
	return e.Err
}
