// Package errors provides the error taxonomy of the handler tree.
// This is a leaf package with no internal dependencies so that format
// packages and stores can classify failures without importing the tree.
//
// Import graph: errors <- handler <- formats, watch, cmd
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents the class of failure.
type ErrorCode int

const (
	// ErrNotFound indicates a path or name did not resolve.
	ErrNotFound ErrorCode = iota + 1

	// ErrConflict indicates an insert collided with an existing child.
	ErrConflict

	// ErrStructural indicates an attempt to ascend past the tree root.
	ErrStructural

	// ErrResource indicates a backing store I/O failure.
	ErrResource

	// ErrParse indicates malformed serialized state.
	ErrParse

	// ErrBusy indicates the session commit lock is held by another commit.
	ErrBusy

	// ErrInvalidArgument indicates a malformed name, path or handler.
	ErrInvalidArgument
)

// String returns a human-readable name for the error code.
func (e ErrorCode) String() string {
	switch e {
	case ErrNotFound:
		return "NotFound"
	case ErrConflict:
		return "Conflict"
	case ErrStructural:
		return "Structural"
	case ErrResource:
		return "Resource"
	case ErrParse:
		return "Parse"
	case ErrBusy:
		return "Busy"
	case ErrInvalidArgument:
		return "InvalidArgument"
	default:
		return fmt.Sprintf("Unknown(%d)", int(e))
	}
}

// HandlerError is the error type returned by every handler tree operation.
type HandlerError struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error // underlying cause, if any
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	msg := e.Code.String() + ": " + e.Message
	if e.Path != "" {
		msg += " (path: " + e.Path + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes the underlying cause to errors.Is and errors.As.
func (e *HandlerError) Unwrap() error {
	return e.Err
}

// Is matches another *HandlerError with the same Code, so that
// errors.Is(err, &HandlerError{Code: ErrNotFound}) works as a class test.
func (e *HandlerError) Is(target error) bool {
	t, ok := target.(*HandlerError)
	return ok && t.Code == e.Code && t.Message == "" && t.Path == ""
}

// ============================================================================
// Factory Functions
// ============================================================================

// NewNotFoundError creates a NotFound error for name under path.
func NewNotFoundError(path, name string) *HandlerError {
	return &HandlerError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("no handler named %q", name),
		Path:    path,
	}
}

// NewConflictError creates a Conflict error for an existing name.
func NewConflictError(path, name string) *HandlerError {
	return &HandlerError{
		Code:    ErrConflict,
		Message: fmt.Sprintf("handler %q already exists", name),
		Path:    path,
	}
}

// NewStructuralError creates a Structural error.
func NewStructuralError(path, message string) *HandlerError {
	return &HandlerError{
		Code:    ErrStructural,
		Message: message,
		Path:    path,
	}
}

// NewResourceError wraps a backing store failure.
func NewResourceError(path, op string, err error) *HandlerError {
	return &HandlerError{
		Code:    ErrResource,
		Message: op + " failed",
		Path:    path,
		Err:     err,
	}
}

// NewParseError wraps a format decoding failure.
func NewParseError(path, format string, err error) *HandlerError {
	return &HandlerError{
		Code:    ErrParse,
		Message: fmt.Sprintf("malformed %s data", format),
		Path:    path,
		Err:     err,
	}
}

// NewBusyError creates a Busy error for a contended commit lock.
func NewBusyError(session string) *HandlerError {
	return &HandlerError{
		Code:    ErrBusy,
		Message: fmt.Sprintf("session %s is committing", session),
	}
}

// NewInvalidArgumentError creates an InvalidArgument error.
func NewInvalidArgumentError(path, message string) *HandlerError {
	return &HandlerError{
		Code:    ErrInvalidArgument,
		Message: message,
		Path:    path,
	}
}

// ============================================================================
// Predicates
// ============================================================================

// CodeOf returns the code of the first HandlerError in err's chain, or 0.
func CodeOf(err error) ErrorCode {
	var he *HandlerError
	if errors.As(err, &he) {
		return he.Code
	}
	return 0
}

// IsNotFoundError reports whether err is a NotFound error.
func IsNotFoundError(err error) bool { return CodeOf(err) == ErrNotFound }

// IsConflictError reports whether err is a Conflict error.
func IsConflictError(err error) bool { return CodeOf(err) == ErrConflict }

// IsStructuralError reports whether err is a Structural error.
func IsStructuralError(err error) bool { return CodeOf(err) == ErrStructural }

// IsResourceError reports whether err is a Resource error.
func IsResourceError(err error) bool { return CodeOf(err) == ErrResource }

// IsParseError reports whether err is a Parse error.
func IsParseError(err error) bool { return CodeOf(err) == ErrParse }

// IsBusyError reports whether err is a Busy error.
func IsBusyError(err error) bool { return CodeOf(err) == ErrBusy }

// IsInvalidArgumentError reports whether err is an InvalidArgument error.
func IsInvalidArgumentError(err error) bool { return CodeOf(err) == ErrInvalidArgument }
