package output

import (
	"errors"
	"fmt"
)

// ErrInvalidResult is returned when a Result lacks the data its Mode needs.
var ErrInvalidResult = errors.New("invalid result")

func errMissing(m Mode) error {
	return fmt.Errorf("%w: no %s data", ErrInvalidResult, m)
}

func errUnknownMode(m Mode) error {
	return fmt.Errorf("%w: unknown mode %q", ErrInvalidResult, m)
}
