package fritz

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when a console element did not show up or did
	// not become clickable in time.
	ErrTimeout = errors.New("timed out waiting for console")

	// ErrControlDisabled is returned when an offset step button stays
	// disabled, which means the device's offset limit is reached.
	ErrControlDisabled = errors.New("adjust control disabled")

	// ErrNoPassword is returned when no router password is configured.
	ErrNoPassword = errors.New("no router password configured")

	// ErrRowNotFound is returned when the control page has no usable row for a device.
	ErrRowNotFound = errors.New("device row not found")
)

// classify maps an error from a bounded wait to one of the package errors.
// Cancellation of the caller's context is passed through unchanged.
func classify(parent context.Context, err error, what string, timeoutErr error) error {
	if err == nil {
		return nil
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s", timeoutErr, what)
	}
	return fmt.Errorf("%s: %w", what, err)
}
