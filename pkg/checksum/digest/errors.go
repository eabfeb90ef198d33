package digest

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Reasons reported by FileAccessError.
const (
	ReasonNotFound         = "Not found"
	ReasonPermissionDenied = "Permission denied"
	ReasonIsDirectory      = "Is a directory"
	ReasonNotRegular       = "Not a regular file"
	ReasonReadError        = "Read error"
)

// FileAccessError is returned when a file cannot be hashed because it is
// missing, unreadable, or not a regular file.
type FileAccessError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *FileAccessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *FileAccessError) Unwrap() error {
	return e.Err
}

// newAccessError classifies err into a FileAccessError for path.
func newAccessError(path string, err error) *FileAccessError {
	return &FileAccessError{Path: path, Reason: reasonFor(err), Err: err}
}

// reasonFor maps an I/O error to a short human-readable reason.
func reasonFor(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ReasonNotFound
	case errors.Is(err, fs.ErrPermission):
		return ReasonPermissionDenied
	case errors.Is(err, syscall.EISDIR):
		return ReasonIsDirectory
	default:
		return ReasonReadError
	}
}
