package service

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies one of the five managed service roles. The set is fixed;
// every kind carries its own policy parameters (grace period, stop stages,
// stray image names).
type Kind int

const (
	Database Kind = iota
	AuthServer
	WorldServer
	Client
	WebServer
)

func (k Kind) String() string {
	switch k {
	case Database:
		return "database"
	case AuthServer:
		return "authserver"
	case WorldServer:
		return "worldserver"
	case Client:
		return "client"
	case WebServer:
		return "webserver"
	default:
		return "unknown"
	}
}

// ParseKind converts a service name (as used in the CLI and HTTP API) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "database", "mysql", "db":
		return Database, nil
	case "authserver", "auth":
		return AuthServer, nil
	case "worldserver", "world":
		return WorldServer, nil
	case "client":
		return Client, nil
	case "webserver", "web":
		return WebServer, nil
	default:
		return 0, fmt.Errorf("unknown service: %q", s)
	}
}

// Kinds returns all managed service kinds in display order.
func Kinds() []Kind {
	return []Kind{Database, AuthServer, WorldServer, Client, WebServer}
}

// Signal is an abstract stop signal. The platform layer maps it to a real
// signal (unix) or a terminate/kill call (windows).
type Signal int

const (
	SigInterrupt Signal = iota // CTRL+C equivalent
	SigTerminate
	SigKill
)

func (s Signal) String() string {
	switch s {
	case SigInterrupt:
		return "SIGINT"
	case SigTerminate:
		return "SIGTERM"
	case SigKill:
		return "SIGKILL"
	default:
		return "unknown"
	}
}

// StopStage is one graceful step of the shutdown escalation: send Signal,
// then wait up to Wait for the process to exit before escalating.
// The final forced kill is not a stage; it is unconditional.
type StopStage struct {
	Signal Signal
	Wait   time.Duration
}

// Policy holds the per-kind process management parameters. Policies are
// plain data; the only behavioral variation between services lives here.
type Policy struct {
	Kind        Kind
	DisplayName string
	// Grace is the optimistic startup window: the service is presented as
	// Starting for this long after launch, then as Running.
	Grace time.Duration
	// StopStages are tried in order; a process surviving all of them is
	// force-killed unconditionally.
	StopStages []StopStage
	// Images are the executable image names swept by stray-process cleanup.
	// Stored without the windows ".exe" suffix; the detector adds it.
	Images []string
	// CapturesOutput selects the piped stdout/stderr capture path on start.
	// Only the database does this; the other services are launched without
	// pipes and simply waited on.
	CapturesOutput bool
	// LogFileName is the per-service process log file, relative to the log dir.
	LogFileName string
	// ServerBinary/ClientBinary: when the configured path's basename matches
	// ClientBinary, the launcher substitutes ServerBinary from the same
	// directory. ConsoleFlag is appended when launching ServerBinary.
	ServerBinary string
	ClientBinary string
	ConsoleFlag  string
}

// SweepSettle is how long a sweep waits after the graceful pass before
// re-checking and force-killing survivors.
const SweepSettle = 2 * time.Second

var policies = map[Kind]Policy{
	Database: {
		Kind:           Database,
		DisplayName:    "MySQL",
		Grace:          10 * time.Second,
		StopStages:     databaseStopStages,
		Images:         []string{"mysqld", "mysql"},
		CapturesOutput: true,
		LogFileName:    "mysql_process.log",
		ServerBinary:   "mysqld",
		ClientBinary:   "mysql",
		ConsoleFlag:    "--console",
	},
	AuthServer: {
		Kind:        AuthServer,
		DisplayName: "AuthServer",
		Grace:       10 * time.Second,
		StopStages:  []StopStage{{Signal: SigTerminate, Wait: 10 * time.Second}},
		Images:      []string{"authserver"},
		LogFileName: "authserver_process.log",
	},
	WorldServer: {
		Kind:        WorldServer,
		DisplayName: "WorldServer",
		Grace:       120 * time.Second,
		StopStages:  []StopStage{{Signal: SigTerminate, Wait: 10 * time.Second}},
		Images:      []string{"worldserver"},
		LogFileName: "worldserver_process.log",
	},
	Client: {
		Kind:        Client,
		DisplayName: "Client",
		Grace:       15 * time.Second,
		StopStages:  []StopStage{{Signal: SigTerminate, Wait: 10 * time.Second}},
		Images:      []string{"wow"},
		LogFileName: "client_process.log",
	},
	WebServer: {
		Kind:        WebServer,
		DisplayName: "Webserver",
		Grace:       10 * time.Second,
		StopStages:  []StopStage{{Signal: SigTerminate, Wait: 10 * time.Second}},
		Images:      []string{"httpd", "apache", "ApacheMonitor"},
		LogFileName: "webserver_process.log",
	},
}

// PolicyFor returns the policy for k. It panics on an unknown kind: the set
// of kinds is closed and a missing policy is a programming error, not a
// runtime condition.
func PolicyFor(k Kind) Policy {
	p, ok := policies[k]
	if !ok {
		panic(fmt.Sprintf("service: no policy for kind %d", int(k)))
	}
	return p
}

// MaxStopWait is the worst-case time Stop can spend waiting on graceful
// stages before the unconditional kill.
func (p Policy) MaxStopWait() time.Duration {
	var d time.Duration
	for _, st := range p.StopStages {
		d += st.Wait
	}
	return d
}
