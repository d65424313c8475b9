//go:build windows

package process

import (
	"fmt"
	"os/exec"
	"strconv"
	"syscall"

	"github.com/wardkeep/wardkeep/internal/service"
)

func sysProcAttr() *syscall.SysProcAttr { return nil }

// signal maps abstract signals onto windows semantics: graceful stages go
// through taskkill (WM_CLOSE delivery), the kill stage terminates the
// process handle directly.
func (p *Process) signal(sig service.Signal) error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return fmt.Errorf("no tracked process")
	}
	switch sig {
	case service.SigInterrupt, service.SigTerminate:
		// #nosec G204 -- pid of our own child
		return exec.Command("taskkill", "/pid", strconv.Itoa(cmd.Process.Pid)).Run()
	case service.SigKill:
		return cmd.Process.Kill()
	default:
		return fmt.Errorf("unknown signal %d", int(sig))
	}
}
