package handler

import (
	"github.com/nkhine/itools/pkg/handler/errors"
)

// HandlerError is re-exported from the errors package.
type HandlerError = errors.HandlerError

// ErrorCode is re-exported from the errors package.
type ErrorCode = errors.ErrorCode

// Re-exported error codes.
const (
	ErrNotFound        = errors.ErrNotFound
	ErrConflict        = errors.ErrConflict
	ErrStructural      = errors.ErrStructural
	ErrResource        = errors.ErrResource
	ErrParse           = errors.ErrParse
	ErrBusy            = errors.ErrBusy
	ErrInvalidArgument = errors.ErrInvalidArgument
)

// Re-exported predicates.
var (
	IsNotFoundError        = errors.IsNotFoundError
	IsConflictError        = errors.IsConflictError
	IsStructuralError      = errors.IsStructuralError
	IsResourceError        = errors.IsResourceError
	IsParseError           = errors.IsParseError
	IsBusyError            = errors.IsBusyError
	IsInvalidArgumentError = errors.IsInvalidArgumentError
)
