package daemon

import "errors"

var (
	// ErrQueueFull is returned when too many recalibrations are pending.
	ErrQueueFull = errors.New("recalibration queue is full")

	// ErrNotReady is returned when a request arrives before the daemon is set up.
	ErrNotReady = errors.New("daemon not ready")
)
