package storage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies failures surfaced through the Storage interface. Absence
// of data is never an error and so has no kind.
type ErrorKind string

const (
	// BackendFault indicates the underlying medium failed (I/O error, corruption)
	BackendFault ErrorKind = "BACKEND_FAULT"
	// InvalidArgument indicates a malformed table or key identifier
	InvalidArgument ErrorKind = "INVALID_ARGUMENT"
)

var (
	// ErrBackendFault matches any error of kind BackendFault via errors.Is
	ErrBackendFault = &Error{Kind: BackendFault}
	// ErrInvalidArgument matches any error of kind InvalidArgument via errors.Is
	ErrInvalidArgument = &Error{Kind: InvalidArgument}
)

// Error is the failure type returned by Storage implementations. Op, Table and Key
// describe the call that failed and are empty when not applicable.
type Error struct {
	Kind  ErrorKind
	Op    string
	Table string
	Key   string
	Err   error
}

// NewError creates an Error of the given kind wrapping err
func NewError(kind ErrorKind, op string, table string, key string, err error) *Error {
	return &Error{Kind: kind, Op: op, Table: table, Key: key, Err: err}
}

// Faultf creates a BackendFault error with a formatted cause. Use %w in format to keep
// the underlying error matchable.
func Faultf(op string, format string, args ...interface{}) *Error {
	return NewError(BackendFault, op, "", "", fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	if e.Table != "" {
		fmt.Fprintf(&b, " table=%q", e.Table)
	}
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%q", e.Key)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, which lets the
// ErrBackendFault and ErrInvalidArgument sentinels match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// IsBackendFault checks if err is (or wraps) a BackendFault
func IsBackendFault(err error) bool {
	return errors.Is(err, ErrBackendFault)
}

// IsInvalidArgument checks if err is (or wraps) an InvalidArgument
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
