package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies conversion failures
type ErrorKind string

const (
	ErrorKindInvalidInput        ErrorKind = "invalid_input"
	ErrorKindEngineNotFound      ErrorKind = "engine_not_found"
	ErrorKindEngineLaunchFailed  ErrorKind = "engine_launch_failed"
	ErrorKindEngineExitedNonZero ErrorKind = "engine_exited_nonzero"
	ErrorKindAmbiguousSuccess    ErrorKind = "ambiguous_success"
	ErrorKindRenderingFailed     ErrorKind = "rendering_failed"
	ErrorKindIO                  ErrorKind = "io_failure"
)

// Error is a typed conversion failure
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error

	// Populated for engine failures
	ExitCode int
	Stdout   string
	Stderr   string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if e.Kind == ErrorKindEngineExitedNonZero || e.Kind == ErrorKindAmbiguousSuccess {
		if s := strings.TrimSpace(e.Stdout); s != "" {
			fmt.Fprintf(&b, "\nstdout: %s", s)
		}
		if s := strings.TrimSpace(e.Stderr); s != "" {
			fmt.Fprintf(&b, "\nstderr: %s", s)
		}
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches errors of the same kind, so errors.Is(err, &Error{Kind: k}) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// NewError creates a typed error
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func InvalidInput(message string, err error) *Error {
	return NewError(ErrorKindInvalidInput, message, err)
}

func EngineNotFound(message string) *Error {
	return NewError(ErrorKindEngineNotFound, message, nil)
}

func EngineLaunchFailed(err error) *Error {
	return NewError(ErrorKindEngineLaunchFailed, "failed to start converter engine", err)
}

func EngineExitedNonZero(code int, stdout, stderr string) *Error {
	return &Error{
		Kind:     ErrorKindEngineExitedNonZero,
		Message:  fmt.Sprintf("converter engine exited with code %d", code),
		ExitCode: code,
		Stdout:   stdout,
		Stderr:   stderr,
	}
}

func AmbiguousSuccess(expected, stdout string) *Error {
	return &Error{
		Kind:    ErrorKindAmbiguousSuccess,
		Message: fmt.Sprintf("conversion appeared to succeed but output file not found (expected %s)", expected),
		Stdout:  stdout,
	}
}

func RenderingFailed(message string, err error) *Error {
	return NewError(ErrorKindRenderingFailed, message, err)
}

func IOFailure(message string, err error) *Error {
	return NewError(ErrorKindIO, message, err)
}

// KindOf returns the kind of a typed error, or io_failure for anything else
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrorKindIO
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
