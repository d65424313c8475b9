package history

import (
	"context"
	"time"
)

// EventType classifies a service lifecycle event.
type EventType string

const (
	EventStart          EventType = "start"
	EventStop           EventType = "stop"
	EventUnexpectedExit EventType = "unexpected_exit"
	EventSweep          EventType = "sweep"
	EventAutorestart    EventType = "autorestart"
)

// Record carries the service snapshot attached to an event.
type Record struct {
	Service  string `json:"service"`
	PID      int    `json:"pid"`
	State    string `json:"state"`
	ExitCode int    `json:"exit_code"`
	Detail   string `json:"detail,omitempty"`
}

// Event is one lifecycle event destined for external bookkeeping.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Record     Record    `json:"record"`
}

// Sink is a destination for lifecycle events. Implementations must be safe
// for concurrent use; senders treat failures as best-effort.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
