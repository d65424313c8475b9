//go:build windows

package supervisor

import (
	"os/exec"
	"syscall"
)

const restartScriptName = "Start-AutoRestart.bat"

const (
	createNewProcessGroup = 0x00000200
	detachedProcess       = 0x00000008
)

// spawnDetached launches the batch script through cmd.exe in a new process
// group with no console and all output discarded. The child outlives the
// supervisor; we release the handle and never wait on it.
func spawnDetached(script, dir string) error {
	cmd := exec.Command("cmd", "/c", script)
	cmd.Dir = dir
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: createNewProcessGroup | detachedProcess,
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

func openBrowser(url string) error {
	cmd := exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
