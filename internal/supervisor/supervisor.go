package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/wardkeep/wardkeep/internal/config"
	"github.com/wardkeep/wardkeep/internal/detector"
	"github.com/wardkeep/wardkeep/internal/history"
	"github.com/wardkeep/wardkeep/internal/metrics"
	"github.com/wardkeep/wardkeep/internal/process"
	"github.com/wardkeep/wardkeep/internal/service"
)

const (
	tickInterval      = time.Second
	reconcileInterval = 3 * time.Second

	cleanupLogName = "startup_cleanup.log"
	timeLayout     = "2006-01-02 15:04:05"
)

// ServiceStatus is one row of the status report.
type ServiceStatus struct {
	Service     string `json:"service"`
	DisplayName string `json:"display_name"`
	State       string `json:"state"`
	PID         int    `json:"pid,omitempty"`
	Countdown   int    `json:"countdown"`
	LogPath     string `json:"log_path,omitempty"`
}

// Supervisor owns the five service slots and applies the per-kind policies:
// start, staged stop with stray sweeps, countdown presentation, and the
// auth-keyed autorestart convention.
type Supervisor struct {
	cfg    *config.Config
	logger *slog.Logger
	logDir string
	tool   detector.Tool

	mu      sync.Mutex
	entries map[service.Kind]*entry
	sinks   []history.Sink

	// seams for tests; production defaults set in New
	policyFor  func(service.Kind) service.Policy
	restartRun func(script, dir string) error
	openURL    func(url string) error

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New(cfg *config.Config, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Supervisor{
		cfg:        cfg,
		logger:     logger,
		logDir:     cfg.LogDir(),
		tool:       detector.NewImageTool(),
		entries:    make(map[service.Kind]*entry),
		policyFor:  service.PolicyFor,
		restartRun: spawnDetached,
		openURL:    openBrowser,
		done:       make(chan struct{}),
	}
	for _, k := range service.Kinds() {
		s.entries[k] = newEntry(s.policyFor(k))
	}
	return s
}

// SetHistorySinks configures external lifecycle sinks. Passing none clears
// the list. Sends are best-effort; a failing sink never affects control.
func (s *Supervisor) SetHistorySinks(sinks ...history.Sink) {
	s.mu.Lock()
	s.sinks = append([]history.Sink(nil), sinks...)
	s.mu.Unlock()
}

// SetDetector replaces the platform process-table tool.
func (s *Supervisor) SetDetector(tool detector.Tool) {
	s.mu.Lock()
	s.tool = tool
	s.mu.Unlock()
}

func (s *Supervisor) entryFor(k service.Kind) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[k]
}

func (s *Supervisor) detectorTool() detector.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tool
}

// Start launches the service if it is stopped. The call returns as soon as
// the process is spawned; the grace countdown and exit watching run in the
// background.
func (s *Supervisor) Start(k service.Kind) error {
	e := s.entryFor(k)
	path := s.cfg.PathFor(k)
	if path == "" {
		return fmt.Errorf("%s: no executable path configured", k)
	}

	e.mu.Lock()
	if e.state != StateStopped {
		e.mu.Unlock()
		return fmt.Errorf("%s: %w", k, ErrAlreadyRunning)
	}
	p := process.New(e.pol, s.logDir, s.logger)
	if err := p.Start(path); err != nil {
		e.mu.Unlock()
		s.logger.Error("service start failed", "service", k.String(), "path", path, "error", err)
		return err
	}
	e.proc = p
	e.state = StateStarting
	e.remaining = graceSeconds(e.pol)
	pid := p.PID()
	e.mu.Unlock()

	s.logger.Info("service started", "service", k.String(), "pid", pid, "grace", e.pol.Grace)
	metrics.IncStart(k.String())
	metrics.RecordStateTransition(k.String(), StateStopped.String(), StateStarting.String())
	s.setStateGauge(k, StateStarting)
	s.record(history.EventStart, history.Record{
		Service: k.String(), PID: pid, State: StateStarting.String(),
	})

	go s.watchExit(e, p)
	return nil
}

// Stop performs the staged shutdown and the post-stop stray sweep. It
// blocks until the process is confirmed gone; Stop never fails once a live
// process exists.
func (s *Supervisor) Stop(k service.Kind) error {
	e := s.entryFor(k)

	e.mu.Lock()
	if e.state != StateStarting && e.state != StateRunning {
		e.mu.Unlock()
		return fmt.Errorf("%s: %w", k, ErrNotRunning)
	}
	from := e.state
	e.state = StateStopping
	p := e.proc
	e.mu.Unlock()

	metrics.RecordStateTransition(k.String(), from.String(), StateStopping.String())
	s.setStateGauge(k, StateStopping)

	p.SetManuallyStopped()
	outcome := p.Stop()
	p.SweepStray(context.Background(), s.detectorTool())

	e.mu.Lock()
	e.state = StateStopped
	e.proc = nil
	e.remaining = graceSeconds(e.pol)
	e.mu.Unlock()

	s.logger.Info("service stopped", "service", k.String(), "outcome", outcome.String())
	metrics.IncStop(k.String(), outcome.String())
	metrics.RecordStateTransition(k.String(), StateStopping.String(), StateStopped.String())
	s.setStateGauge(k, StateStopped)
	s.record(history.EventStop, history.Record{
		Service: k.String(), State: StateStopped.String(), Detail: outcome.String(),
	})
	return nil
}

// watchExit waits on the process and handles the exit the operator did not
// ask for. Manual stops are fully owned by Stop; this goroutine stands down
// for them.
func (s *Supervisor) watchExit(e *entry, p *process.Process) {
	code := p.WaitForExit()
	if p.ManuallyStopped() {
		return
	}

	k := e.pol.Kind
	e.mu.Lock()
	if e.proc != p {
		// A newer run replaced this one; nothing to report.
		e.mu.Unlock()
		return
	}
	from := e.state
	e.state = StateStopped
	e.proc = nil
	e.remaining = graceSeconds(e.pol)
	e.mu.Unlock()

	s.logger.Warn("service exited unexpectedly", "service", k.String(), "exit_code", code)
	metrics.IncUnexpectedExit(k.String())
	metrics.RecordStateTransition(k.String(), from.String(), StateStopped.String())
	s.setStateGauge(k, StateStopped)
	s.record(history.EventUnexpectedExit, history.Record{
		Service: k.String(), State: StateStopped.String(), ExitCode: code,
	})

	if autorestartKinds[k] && s.cfg.Autorestart() {
		s.TriggerAutorestart()
	}
}

// autorestartKinds are the services whose unexpected exit fires the restart
// hook. The client and web server crash on their own terms; only the server
// stack gets restarted. The script location stays the auth-dir convention
// regardless of which kind exited.
var autorestartKinds = map[service.Kind]bool{
	service.Database:    true,
	service.AuthServer:  true,
	service.WorldServer: true,
}

// Status reports every slot in a fixed order.
func (s *Supervisor) Status() []ServiceStatus {
	out := make([]ServiceStatus, 0, len(service.Kinds()))
	for _, k := range service.Kinds() {
		out = append(out, s.entryFor(k).snapshot())
	}
	return out
}

// Tick advances every countdown by one second. While Starting the number
// counts down and a reached zero promotes the slot to Running; Running
// holds zero; Stopped shows the full grace the next start would get.
func (s *Supervisor) Tick() {
	for _, k := range service.Kinds() {
		e := s.entryFor(k)
		e.mu.Lock()
		switch e.state {
		case StateStarting:
			if e.remaining > 0 {
				e.remaining--
			}
			if e.remaining == 0 {
				e.state = StateRunning
				e.mu.Unlock()
				s.becameRunning(k)
				metrics.SetCountdown(k.String(), 0)
				continue
			}
		case StateRunning, StateStopping:
			e.remaining = 0
		case StateStopped:
			e.remaining = graceSeconds(e.pol)
		}
		remaining := e.remaining
		e.mu.Unlock()
		metrics.SetCountdown(k.String(), remaining)
	}
}

func (s *Supervisor) becameRunning(k service.Kind) {
	s.logger.Info("service running", "service", k.String())
	metrics.RecordStateTransition(k.String(), StateStarting.String(), StateRunning.String())
	s.setStateGauge(k, StateRunning)
	if k == service.WebServer {
		if err := s.openURL("http://localhost"); err != nil {
			s.logger.Warn("could not open browser", "error", err)
		}
	}
}

// Reconcile refreshes the presented state against the ground truth. The
// exit watcher is authoritative for transitions; this pass only republishes
// gauges and flags a dead process the watcher has not collected yet. It
// never returns an error.
func (s *Supervisor) Reconcile() {
	for _, k := range service.Kinds() {
		e := s.entryFor(k)
		e.mu.Lock()
		st := e.state
		alive := e.proc != nil && e.proc.Alive()
		e.mu.Unlock()
		if (st == StateStarting || st == StateRunning) && !alive {
			s.logger.Debug("service process gone, awaiting exit handler", "service", k.String())
		}
		s.setStateGauge(k, st)
	}
}

// RunTickers drives the 1Hz countdown and the 3s reconcile until Close.
func (s *Supervisor) RunTickers() {
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(tickInterval)
		defer t.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
				s.Tick()
			}
		}
	}()
	go func() {
		defer s.wg.Done()
		t := time.NewTicker(reconcileInterval)
		defer t.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-t.C:
				s.Reconcile()
			}
		}
	}()
}

// StartupSweep clears strays of every kind before the first start. Each
// pass lands in a dedicated cleanup log; the sweep itself never fails, only
// opening the log can.
func (s *Supervisor) StartupSweep(ctx context.Context) error {
	if err := os.MkdirAll(s.logDir, 0o750); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	path := filepath.Join(s.logDir, cleanupLogName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open cleanup log: %w", err)
	}
	defer func() { _ = f.Close() }()

	delim := strings.Repeat("=", 80)
	fmt.Fprintln(f, delim)
	fmt.Fprintf(f, "--- Startup cleanup at %s ---\n", time.Now().Format(timeLayout))
	logln := func(format string, args ...any) {
		fmt.Fprintf(f, format+"\n", args...)
	}
	tool := s.detectorTool()
	for _, k := range service.Kinds() {
		pol := s.policyFor(k)
		logln("--- Sweeping %s ---", pol.DisplayName)
		process.Sweep(ctx, tool, pol, s.logger, logln)
		s.record(history.EventSweep, history.Record{
			Service: k.String(), State: StateStopped.String(), Detail: "startup cleanup",
		})
	}
	fmt.Fprintln(f, delim)
	return nil
}

// TriggerAutorestart looks for the restart script next to the auth server
// executable and launches it fully detached. Every failure mode here is
// swallowed by contract: a missing script or a spawn error is logged and
// nothing else.
func (s *Supervisor) TriggerAutorestart() {
	authPath := s.cfg.PathFor(service.AuthServer)
	if authPath == "" {
		s.logger.Warn("autorestart skipped: no auth server path configured")
		return
	}
	dir := filepath.Dir(authPath)
	script := filepath.Join(dir, restartScriptName)
	if _, err := os.Stat(script); err != nil {
		s.logger.Warn("autorestart skipped: restart script missing", "script", script)
		return
	}
	s.logger.Info("triggering autorestart", "script", script)
	metrics.IncAutorestart()
	s.record(history.EventAutorestart, history.Record{
		Service: service.AuthServer.String(), Detail: script,
	})
	if err := s.restartRun(script, dir); err != nil {
		s.logger.Warn("autorestart spawn failed", "script", script, "error", err)
	}
}

// SetAutorestart persists the flag gating the auth-keyed restart hook.
func (s *Supervisor) SetAutorestart(enabled bool) error {
	return s.cfg.SetAutorestart(enabled)
}

// Autorestart reports the persisted flag.
func (s *Supervisor) Autorestart() bool { return s.cfg.Autorestart() }

// StopAll stops every live service, database last so dependents can flush.
func (s *Supervisor) StopAll() {
	order := []service.Kind{service.Client, service.WorldServer, service.AuthServer, service.WebServer, service.Database}
	for _, k := range order {
		_ = s.Stop(k)
	}
}

// Close stops the tickers and waits for background work to settle. Live
// services are left alone; StopAll is a separate decision.
func (s *Supervisor) Close() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *Supervisor) setStateGauge(k service.Kind, st State) {
	for _, cand := range []State{StateStopped, StateStarting, StateRunning, StateStopping} {
		metrics.SetCurrentState(k.String(), cand.String(), cand == st)
	}
}

func (s *Supervisor) record(t history.EventType, rec history.Record) {
	s.mu.Lock()
	sinks := append([]history.Sink(nil), s.sinks...)
	s.mu.Unlock()
	if len(sinks) == 0 {
		return
	}
	evt := history.Event{Type: t, OccurredAt: time.Now().UTC(), Record: rec}
	for _, sink := range sinks {
		_ = sink.Send(context.Background(), evt)
	}
}
