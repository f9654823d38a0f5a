// Package cmderr defines the error kinds surfaced at the CLI boundary.
package cmderr

import (
	"errors"
	"fmt"
)

// Kind classifies a command failure for exit-code mapping and messaging.
type Kind int

const (
	// KindUnknown is the zero value for errors that carry no classification.
	KindUnknown Kind = iota
	// KindConfiguration covers missing or invalid inputs and settings.
	KindConfiguration
	// KindConflict covers unexpected filesystem state during materialization.
	KindConflict
	// KindCredential covers a missing token that could not be prompted for.
	KindCredential
	// KindExternalTool covers non-zero exits from wrapped subprocesses.
	KindExternalTool
)

// Error pairs a kind with a message and an optional cause.
type Error struct {
	Err  error
	Msg  string
	Kind Kind
	// Code carries the subprocess exit code for KindExternalTool errors.
	Code int
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg != "" {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error from a format string.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an existing error, keeping it available for unwrapping.
func Wrap(kind Kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Err: err, Msg: fmt.Sprintf(format, args...)}
}

// External wraps a subprocess failure, recording its exit code.
func External(err error, code int, format string, args ...any) error {
	return &Error{Kind: KindExternalTool, Err: err, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// KindOf extracts the classification from err, or KindUnknown.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// ExitCode maps an error to the process exit status. External tool failures
// propagate the tool's own exit code; everything else exits 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *Error
	if errors.As(err, &ce) && ce.Kind == KindExternalTool && ce.Code > 0 {
		return ce.Code
	}
	return 1
}
