package iff

import (
	"errors"
	"fmt"
)

// ErrFormat marks truncated or internally inconsistent binary structure.
// Every structural failure reported by this package and the format codecs
// built on it matches ErrFormat with errors.Is.
var ErrFormat = errors.New("iff: malformed chunk data")

// FormatError locates a structural failure inside the parsed buffer.
type FormatError struct {
	ID     ID
	Offset int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	var msg string
	if e.ID == (ID{}) {
		msg = fmt.Sprintf("iff: malformed chunk at offset %d: %s", e.Offset, e.Reason)
	} else {
		msg = fmt.Sprintf("iff: malformed %q chunk at offset %d: %s", e.ID.String(), e.Offset, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

// Errorf builds an error that matches ErrFormat. Codecs use it to report bad payloads.
func Errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrFormat, fmt.Sprintf(format, args...))
}
