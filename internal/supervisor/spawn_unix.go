//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

const restartScriptName = "Start-AutoRestart.sh"

// spawnDetached launches the script in its own session with all output
// discarded. The child outlives the supervisor; we release the handle and
// never wait on it.
func spawnDetached(script, dir string) error {
	cmd := exec.Command(script)
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

func openBrowser(url string) error {
	cmd := exec.Command("xdg-open", url)
	if err := cmd.Start(); err != nil {
		// macOS has no xdg-open.
		cmd = exec.Command("open", url)
		if err2 := cmd.Start(); err2 != nil {
			return err
		}
	}
	return cmd.Process.Release()
}
