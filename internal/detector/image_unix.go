//go:build !windows

package detector

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
)

// ImageTool signals processes by image name using pgrep/pkill. Matching is
// against the full command line (-f), mirroring how stray server processes
// are usually started through wrapper scripts.
type ImageTool struct{}

func NewImageTool() ImageTool { return ImageTool{} }

func (ImageTool) Running(ctx context.Context, image string) (bool, error) {
	// #nosec G204 -- image names come from the fixed per-kind policy table
	cmd := exec.CommandContext(ctx, "pgrep", "-f", image)
	err := cmd.Run()
	if err == nil {
		return true, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		// pgrep exits 1 when nothing matched
		return false, nil
	}
	return false, err
}

func (ImageTool) Terminate(ctx context.Context, image string) error {
	return runKillCommand(ctx, "pkill", "-TERM", "-f", image)
}

func (ImageTool) Kill(ctx context.Context, image string) error {
	return runKillCommand(ctx, "pkill", "-KILL", "-f", image)
}

func (ImageTool) Describe() string { return "pgrep/pkill" }

func runKillCommand(ctx context.Context, name string, args ...string) error {
	// #nosec G204 -- fixed binary, image names from the policy table
	err := exec.CommandContext(ctx, name, args...).Run()
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		// exit 1: no processes matched; the sweep treats that as success
		return nil
	}
	return err
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
