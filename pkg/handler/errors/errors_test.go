package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code ErrorCode
		want string
	}{
		{ErrNotFound, "NotFound"},
		{ErrConflict, "Conflict"},
		{ErrStructural, "Structural"},
		{ErrResource, "Resource"},
		{ErrParse, "Parse"},
		{ErrBusy, "Busy"},
		{ErrInvalidArgument, "InvalidArgument"},
		{ErrorCode(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.String())
	}
}

func TestHandlerErrorMessage(t *testing.T) {
	t.Parallel()

	err := NewNotFoundError("/a/b", "doc.txt")
	assert.Equal(t, `NotFound: no handler named "doc.txt" (path: /a/b)`, err.Error())

	err = NewResourceError("/a", "read", io.ErrUnexpectedEOF)
	assert.Equal(t, "Resource: read failed (path: /a): unexpected EOF", err.Error())

	err = NewBusyError("s1")
	assert.Equal(t, "Busy: session s1 is committing", err.Error())
}

func TestPredicates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"not found", NewNotFoundError("", "x"), IsNotFoundError},
		{"conflict", NewConflictError("", "x"), IsConflictError},
		{"structural", NewStructuralError("/", "no parent"), IsStructuralError},
		{"resource", NewResourceError("", "write", io.EOF), IsResourceError},
		{"parse", NewParseError("", "json", io.EOF), IsParseError},
		{"busy", NewBusyError("s"), IsBusyError},
		{"invalid", NewInvalidArgumentError("", "bad"), IsInvalidArgumentError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.check(tt.err))
			assert.True(t, tt.check(fmt.Errorf("wrapped: %w", tt.err)))
			assert.False(t, tt.check(errors.New("plain")))
			assert.False(t, tt.check(nil))
		})
	}
}

func TestUnwrapAndIs(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk on fire")
	err := fmt.Errorf("saving: %w", NewResourceError("/x", "write", cause))

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, &HandlerError{Code: ErrResource})
	assert.NotErrorIs(t, err, &HandlerError{Code: ErrParse})
	assert.Equal(t, ErrResource, CodeOf(err))
	assert.Zero(t, CodeOf(cause))
}
