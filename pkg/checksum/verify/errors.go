package verify

import (
	"errors"
	"fmt"
)

// Reasons reported by ManifestFormatError.
const (
	ReasonManifestNotFound = "manifest not found"
	ReasonManifestRead     = "cannot read manifest"
	ReasonUndetectable     = "cannot detect checksum algorithm"

	// ReasonNoEntries is fatal even when the name gives the algorithm
	// (an empty SHA256SUMS), as with sha256sum -c. An empty report with
	// total 0 would otherwise pass.
	ReasonNoEntries = "no checksum lines found"
)

// ErrVerificationFailed is returned by callers that need an error value
// for a completed verification with failed or errored outcomes.
var ErrVerificationFailed = errors.New("verification failed")

// ManifestFormatError is returned when a manifest cannot be used at all.
// It is fatal for the whole verification run.
type ManifestFormatError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ManifestFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ManifestFormatError) Unwrap() error {
	return e.Err
}
