// Package apperr defines the error kinds surfaced by install and workshop
// operations. Every failure that reaches a command caller carries exactly one
// Kind so the caller can decide whether retrying the whole operation makes sense.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

func (k Kind) String() string {
	return strings.ToLower(string(k))
}

const (
	InvalidInput               Kind = "Invalid Input"
	ForbiddenPath              Kind = "Forbidden Path"
	StructureMismatch          Kind = "Structure Mismatch"
	ToolFailure                Kind = "Tool Failure"
	IoFailure                  Kind = "IO Failure"
	ExternalServiceUnavailable Kind = "External Service Unavailable"
	ExternalServiceError       Kind = "External Service Error"
	Timeout                    Kind = "Timeout"
	TaskFailure                Kind = "Task Failure"
	Cancelled                  Kind = "Cancelled"
)

// Error is a classified failure. Op names the operation that failed
// ("install", "unsubscribe", ...).
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// New returns an Error without an underlying cause.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Message: msg}
}

// Newf is New with a format string.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error that keeps err as its cause.
func Wrap(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: msg, Err: err}
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match two Errors of the same kind, so callers can test
// against a bare sentinel such as &Error{Kind: Timeout}.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Op == "" || t.Op == e.Op)
}

// KindOf returns the kind of the first Error in err's chain, or "" when err
// carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
