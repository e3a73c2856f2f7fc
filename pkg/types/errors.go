package types

import (
	"errors"
	"fmt"
)

// InvalidParameterError is returned when a user supplied parameter is outside of the
// accepted range. It is always raised before any input is opened.
type InvalidParameterError struct {
	// The name of the parameter (usually the CLI flag)
	Name string
	// The rejected value
	Value interface{}
	// Why the value was rejected
	Reason string
}

func (e *InvalidParameterError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Name, e.Value, e.Reason)
}

// IOError wraps a failure to read the source tree or input file, or to write the
// output file or destination tree.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// CorruptArchiveError is returned when the compressed stream cannot be decoded, or decodes
// to an archive whose framing is inconsistent. This usually means the file is truncated,
// was not produced by sharky, or is being decoded with the wrong algorithm.
type CorruptArchiveError struct {
	Reason string
	Err    error
}

func (e *CorruptArchiveError) Error() string {
	if e.Err == nil {
		return "corrupt archive: " + e.Reason
	}
	return fmt.Sprintf("corrupt archive: %s: %v", e.Reason, e.Err)
}

func (e *CorruptArchiveError) Unwrap() error { return e.Err }

// NewIOError is a convenience constructor for an IOError.
func NewIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// NewCorruptArchiveError is a convenience constructor for a CorruptArchiveError.
func NewCorruptArchiveError(reason string, err error) error {
	return &CorruptArchiveError{Reason: reason, Err: err}
}

// IsInvalidParameter returns true if err is, or wraps, an InvalidParameterError.
func IsInvalidParameter(err error) bool {
	var target *InvalidParameterError
	return errors.As(err, &target)
}

// IsIO returns true if err is, or wraps, an IOError.
func IsIO(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}

// IsCorrupt returns true if err is, or wraps, a CorruptArchiveError.
func IsCorrupt(err error) bool {
	var target *CorruptArchiveError
	return errors.As(err, &target)
}

// ClassifyReadError tags an error that surfaced while reading a decoded stream. Errors that
// are already tagged pass through untouched; anything else means the stream itself is bad.
func ClassifyReadError(what string, err error) error {
	if err == nil || IsIO(err) || IsCorrupt(err) || IsInvalidParameter(err) {
		return err
	}
	return NewCorruptArchiveError(what, err)
}
