//go:build !windows

package process

import (
	"fmt"
	"syscall"

	"github.com/wardkeep/wardkeep/internal/service"
)

// sysProcAttr puts the child in its own process group so stop signals reach
// any grandchildren the server spawns.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// signal sends the abstract stop signal to the tracked process group.
func (p *Process) signal(sig service.Signal) error {
	pid := p.PID()
	if pid <= 0 {
		return fmt.Errorf("no tracked process")
	}
	var s syscall.Signal
	switch sig {
	case service.SigInterrupt:
		s = syscall.SIGINT
	case service.SigTerminate:
		s = syscall.SIGTERM
	case service.SigKill:
		s = syscall.SIGKILL
	default:
		return fmt.Errorf("unknown signal %d", int(sig))
	}
	return syscall.Kill(-pid, s)
}
