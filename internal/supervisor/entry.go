package supervisor

import (
	"sync"

	"github.com/wardkeep/wardkeep/internal/process"
	"github.com/wardkeep/wardkeep/internal/service"
)

// State is the presented lifecycle state of one supervised service.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// entry is the per-service slot. The state here is what the operator sees;
// the process handle underneath is the ground truth it is derived from.
// The mutex guards state/proc/remaining and is never held across a
// blocking process operation.
type entry struct {
	pol service.Policy

	mu        sync.Mutex
	state     State
	proc      *process.Process
	remaining int // countdown seconds shown while Starting; Grace when Stopped
}

func newEntry(pol service.Policy) *entry {
	return &entry{pol: pol, state: StateStopped, remaining: graceSeconds(pol)}
}

func graceSeconds(pol service.Policy) int {
	return int(pol.Grace.Seconds())
}

func (e *entry) snapshot() ServiceStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := ServiceStatus{
		Service:     e.pol.Kind.String(),
		DisplayName: e.pol.DisplayName,
		State:       e.state.String(),
		Countdown:   e.remaining,
	}
	if e.proc != nil {
		st.PID = e.proc.PID()
		st.LogPath = e.proc.LogPath()
	}
	return st
}
