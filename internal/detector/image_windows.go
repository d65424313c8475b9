//go:build windows

package detector

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
)

// ImageTool signals processes by image name using tasklist/taskkill. Policy
// image names are stored without the ".exe" suffix; it is appended here.
type ImageTool struct{}

func NewImageTool() ImageTool { return ImageTool{} }

func exeName(image string) string {
	if strings.HasSuffix(strings.ToLower(image), ".exe") {
		return image
	}
	return image + ".exe"
}

func (ImageTool) Running(ctx context.Context, image string) (bool, error) {
	img := exeName(image)
	// #nosec G204 -- image names come from the fixed per-kind policy table
	out, err := exec.CommandContext(ctx, "tasklist", "/FI", "IMAGENAME eq "+img).Output()
	if err != nil {
		return false, err
	}
	return strings.Contains(strings.ToLower(string(out)), strings.ToLower(img)), nil
}

func (ImageTool) Terminate(ctx context.Context, image string) error {
	return runTaskkill(ctx, exeName(image), false)
}

func (ImageTool) Kill(ctx context.Context, image string) error {
	return runTaskkill(ctx, exeName(image), true)
}

func (ImageTool) Describe() string { return "tasklist/taskkill" }

func runTaskkill(ctx context.Context, img string, force bool) error {
	args := []string{"/im", img}
	if force {
		args = append([]string{"/f"}, args...)
	}
	// #nosec G204 -- fixed binary, image names from the policy table
	err := exec.CommandContext(ctx, "taskkill", args...).Run()
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		// taskkill exits non-zero when no process matched
		return nil
	}
	return err
}

func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	// #nosec G204
	out, err := exec.Command("tasklist", "/FI", "PID eq "+strconv.Itoa(pid)).Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), strconv.Itoa(pid))
}
