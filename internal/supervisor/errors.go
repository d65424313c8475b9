package supervisor

import "errors"

var (
	// ErrAlreadyRunning is returned by Start when the service is not in the
	// Stopped state.
	ErrAlreadyRunning = errors.New("service already running")
	// ErrNotRunning is returned by Stop when there is no live process to
	// stop.
	ErrNotRunning = errors.New("service not running")
)
