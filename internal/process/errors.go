package process

import "fmt"

// LaunchError reports a failed launch attempt: a bad or missing executable
// path, or the OS refusing to spawn. It surfaces exactly once to the caller
// of Start; the entry stays Stopped.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
