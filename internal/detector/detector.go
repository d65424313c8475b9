package detector

import "context"

// Tool enumerates and signals OS processes by executable image name. The
// sweep path works on image names rather than tracked PIDs: it must reach
// processes this supervisor never launched. Implementations must be safe
// for concurrent use.
type Tool interface {
	// Running reports whether any process matching the image name exists.
	Running(ctx context.Context, image string) (bool, error)
	// Terminate requests graceful termination of all processes matching
	// the image name.
	Terminate(ctx context.Context, image string) error
	// Kill force-kills all processes matching the image name.
	Kill(ctx context.Context, image string) error
	// Describe returns a human-readable description of the tool.
	Describe() string
}

// PIDAlive reports whether a process with the given pid exists.
func PIDAlive(pid int) bool { return pidAlive(pid) }
