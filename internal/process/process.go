package process

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wardkeep/wardkeep/internal/detector"
	"github.com/wardkeep/wardkeep/internal/metrics"
	"github.com/wardkeep/wardkeep/internal/service"
)

// Outcome reports which stage of the stop sequence actually produced the
// exit.
type Outcome int

const (
	OutcomeGracefulExit Outcome = iota
	OutcomeForcedKill
)

func (o Outcome) String() string {
	switch o {
	case OutcomeGracefulExit:
		return "graceful"
	case OutcomeForcedKill:
		return "killed"
	default:
		return "unknown"
	}
}

// EventType discriminates events delivered on the process event channel.
type EventType int

const (
	EventLogLine EventType = iota
	EventExited
)

// Event is published from the background capture/wait tasks to observers.
// Delivery is best-effort (non-blocking); exit detection must use
// WaitForExit, which is authoritative.
type Event struct {
	Type EventType
	Line string // EventLogLine
	Code int    // EventExited
}

// Process wraps one launched external executable: its OS process handle,
// its dedicated log sink, and the start/stop/sweep operations. A Process is
// used for exactly one run; a fresh instance is created for each start.
type Process struct {
	policy  service.Policy
	logPath string
	logger  *slog.Logger

	mu       sync.Mutex
	stopMu   sync.Mutex
	cmd      *exec.Cmd
	plog     *procLog
	manually bool
	exitCode int
	started  bool

	waitDone    chan struct{}
	captureDone chan struct{} // nil unless output capture is active
	events      chan Event
}

func New(pol service.Policy, logDir string, logger *slog.Logger) *Process {
	if logger == nil {
		logger = slog.Default()
	}
	return &Process{
		policy:   pol,
		logPath:  filepath.Join(logDir, pol.LogFileName),
		logger:   logger.With("service", pol.Kind.String()),
		waitDone: make(chan struct{}),
		events:   make(chan Event, 256),
	}
}

// LogPath returns the process log sink path.
func (p *Process) LogPath() string { return p.logPath }

// Events returns the observer channel. It is closed after the exit event.
func (p *Process) Events() <-chan Event { return p.events }

// SetManuallyStopped marks the coming exit as user-initiated so it does not
// count as unexpected (and never triggers autorestart).
func (p *Process) SetManuallyStopped() {
	p.mu.Lock()
	p.manually = true
	p.mu.Unlock()
}

func (p *Process) ManuallyStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.manually
}

func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd != nil && p.cmd.Process != nil {
		return p.cmd.Process.Pid
	}
	return 0
}

// Alive reports whether the tracked process is still running.
func (p *Process) Alive() bool {
	select {
	case <-p.waitDone:
		return false
	default:
	}
	pid := p.PID()
	return pid > 0 && detector.PIDAlive(pid)
}

// resolveCommand maps the configured path to the binary actually launched.
// The database row accepts the client binary and substitutes the server
// binary from the same directory, with the console flag appended.
func (p *Process) resolveCommand(absPath string) (string, []string) {
	pol := p.policy
	if pol.ServerBinary == "" {
		return absPath, nil
	}
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(absPath), ".exe"))
	dir := filepath.Dir(absPath)
	if base == pol.ClientBinary {
		srv := siblingBinary(dir, pol.ServerBinary)
		if srv != "" {
			return srv, []string{pol.ConsoleFlag}
		}
		return absPath, nil
	}
	if base == pol.ServerBinary {
		return absPath, []string{pol.ConsoleFlag}
	}
	return absPath, nil
}

// siblingBinary finds the named binary next to the configured one, trying
// the bare name and the windows ".exe" form.
func siblingBinary(dir, name string) string {
	for _, cand := range []string{filepath.Join(dir, name), filepath.Join(dir, name+".exe")} {
		if fi, err := os.Stat(cand); err == nil && fi.Mode().IsRegular() {
			return cand
		}
	}
	return ""
}

// Start validates the path, writes the log header, and launches the
// process. It does not wait: a background task owns the blocking wait and
// publishes the exit. All errors are LaunchErrors and leave the Process
// unstarted.
func (p *Process) Start(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return &LaunchError{Path: path, Err: fmt.Errorf("process already started")}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return &LaunchError{Path: path, Err: err}
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return &LaunchError{Path: abs, Err: err}
	}
	if !fi.Mode().IsRegular() {
		return &LaunchError{Path: abs, Err: fmt.Errorf("not a regular file")}
	}

	display := p.policy.DisplayName
	if err := os.MkdirAll(filepath.Dir(p.logPath), 0o750); err != nil {
		return &LaunchError{Path: abs, Err: fmt.Errorf("create log dir: %w", err)}
	}
	plog, err := openProcLog(p.logPath, display, path)
	if err != nil {
		return &LaunchError{Path: abs, Err: fmt.Errorf("open log sink: %w", err)}
	}

	bin, args := p.resolveCommand(abs)
	workDir := filepath.Dir(bin)
	plog.launchDetails(display, bin, workDir)

	// #nosec G204 -- the path was configured by the user and validated above
	cmd := exec.Command(bin, args...)
	cmd.Dir = workDir
	cmd.SysProcAttr = sysProcAttr()

	var pumpReady func()
	if p.policy.CapturesOutput {
		pumpReady, err = p.setupCapture(cmd, plog)
		if err != nil {
			plog.failure(fmt.Sprintf("Error starting %s: %v", display, err))
			return &LaunchError{Path: abs, Err: err}
		}
	} else {
		// No output capture for this kind: the run is just launch-and-wait.
		cmd.Stdout = nil
		cmd.Stderr = nil
	}

	if err := cmd.Start(); err != nil {
		plog.failure(fmt.Sprintf("Error starting %s: %v", display, err))
		return &LaunchError{Path: abs, Err: err}
	}

	p.cmd = cmd
	p.plog = plog
	p.started = true
	plog.started(cmd.Process.Pid, workDir)
	p.logger.Info("process started", "pid", cmd.Process.Pid, "path", bin)

	if pumpReady != nil {
		pumpReady()
	}
	go p.waitAndFinalize()
	return nil
}

// waitAndFinalize blocks on the OS process, records the exit, writes the
// log footer, and publishes the terminal event.
func (p *Process) waitAndFinalize() {
	p.mu.Lock()
	cmd := p.cmd
	plog := p.plog
	captureDone := p.captureDone
	p.mu.Unlock()

	if captureDone != nil {
		// Pipe reads must complete before Wait when capture is active.
		<-captureDone
	}
	err := cmd.Wait()
	code := 0
	if err != nil {
		code = -1
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		}
	}

	p.mu.Lock()
	p.exitCode = code
	p.mu.Unlock()

	// Unblock waiters first so a concurrent Stop can record which stage
	// produced the exit before the footer seals the log; stopMu makes the
	// footer wait for an in-flight stop sequence to finish its last line.
	close(p.waitDone)

	p.stopMu.Lock()
	plog.footer(p.policy.DisplayName, code)
	p.stopMu.Unlock()
	p.logger.Info("process exited", "code", code)

	p.publish(Event{Type: EventExited, Code: code})
	close(p.events)
}

// WaitForExit blocks until the OS process terminates and returns its exit
// code.
func (p *Process) WaitForExit() int {
	<-p.waitDone
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exitCode
}

// publish delivers an event without ever blocking the background tasks;
// slow or absent observers lose log lines, never correctness.
func (p *Process) publish(e Event) {
	select {
	case p.events <- e:
	default:
	}
}

// Stop runs the per-kind escalation: each graceful stage sends its signal
// and waits its window; survivors meet an unconditional kill that is always
// waited on. Stop never fails and blocks the caller until exit is
// confirmed. Every stage transition lands in the process log.
func (p *Process) Stop() Outcome {
	p.mu.Lock()
	plog := p.plog
	started := p.started
	p.mu.Unlock()
	if !started {
		return OutcomeGracefulExit
	}

	p.stopMu.Lock()
	defer p.stopMu.Unlock()

	display := p.policy.DisplayName
	plog.shutdownBegin(display)

	stages := p.policy.StopStages
	for i, st := range stages {
		if err := p.signal(st.Signal); err != nil {
			p.logger.Warn("stop signal failed", "signal", st.Signal.String(), "err", err)
		}
		select {
		case <-p.waitDone:
			plog.stage("--- %s stopped gracefully with %s ---", display, st.Signal)
			p.logger.Info("stopped gracefully", "signal", st.Signal.String())
			return OutcomeGracefulExit
		case <-time.After(st.Wait):
		}
		if i+1 < len(stages) {
			plog.stage("--- %s timeout, trying %s ---", st.Signal, stages[i+1].Signal)
		} else {
			plog.stage("--- %s timeout, using force kill as last resort ---", st.Signal)
		}
	}

	_ = p.signal(service.SigKill)
	<-p.waitDone
	p.logger.Warn("force killed")
	return OutcomeForcedKill
}

// SweepStray best-effort terminates every OS process matching the policy's
// image names, not just the one we launched: graceful pass, fixed settle,
// re-check, force-kill survivors. Failures are logged and swallowed.
//
// The sweep runs after the exit footer has sealed the process log, so the
// file is reopened in append mode; cleanup records land after the footer.
func (p *Process) SweepStray(ctx context.Context, tool detector.Tool) {
	logln := func(string, ...any) {}
	if f, err := os.OpenFile(p.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
		defer func() { _ = f.Close() }()
		logln = func(format string, args ...any) {
			_, _ = fmt.Fprintf(f, format+"\n", args...)
		}
	}
	Sweep(ctx, tool, p.policy, p.logger, logln)
}

// Sweep is the image-name cleanup pass shared by per-entry sweeps and the
// program-entry bulk cleanup. logln receives the stage lines destined for
// the relevant operational log file; it may be nil.
func Sweep(ctx context.Context, tool detector.Tool, pol service.Policy, logger *slog.Logger, logln func(format string, args ...any)) {
	if logger == nil {
		logger = slog.Default()
	}
	if logln == nil {
		logln = func(string, ...any) {}
	}
	logln("--- Checking for remaining %s processes ---", pol.DisplayName)
	for _, img := range pol.Images {
		if err := tool.Terminate(ctx, img); err != nil {
			logger.Warn("sweep terminate failed", "image", img, "err", err)
		}
	}

	select {
	case <-time.After(service.SweepSettle):
	case <-ctx.Done():
		return
	}

	for _, img := range pol.Images {
		alive, err := tool.Running(ctx, img)
		if err != nil {
			logger.Warn("sweep enumeration failed", "image", img, "err", err)
			continue
		}
		if !alive {
			continue
		}
		logln("--- Force killing remaining %s processes ---", img)
		if err := tool.Kill(ctx, img); err != nil {
			logger.Warn("sweep kill failed", "image", img, "err", err)
			continue
		}
		metrics.IncSweepKill(img)
		logger.Info("force killed stray processes", "image", img)
	}
}
