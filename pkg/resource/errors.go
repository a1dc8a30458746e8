package resource

import (
	"errors"
	"strings"
)

// Sentinel errors returned by stores. Implementations wrap them with
// fmt.Errorf("...: %w", err) so callers can match with errors.Is.
var (
	// ErrNotFound is returned when a child does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrExists is returned by Create when the name is taken.
	ErrExists = errors.New("resource already exists")

	// ErrNotContainer is returned when a container operation is applied
	// to a file.
	ErrNotContainer = errors.New("resource is not a container")

	// ErrIsContainer is returned when byte I/O is applied to a folder.
	ErrIsContainer = errors.New("resource is a container")

	// ErrInvalidName is returned for names that cannot identify a child.
	ErrInvalidName = errors.New("invalid resource name")

	// ErrClosed is returned after the store has been closed.
	ErrClosed = errors.New("store is closed")
)

// ValidateName checks that name can identify a single child: it must be
// non-empty, must not be "." or "..", and must not contain a slash or NUL.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, "/\x00") {
		return ErrInvalidName
	}
	return nil
}
