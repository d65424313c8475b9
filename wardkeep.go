package wardkeep

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/wardkeep/wardkeep/internal/config"
	"github.com/wardkeep/wardkeep/internal/detector"
	"github.com/wardkeep/wardkeep/internal/history"
	"github.com/wardkeep/wardkeep/internal/metrics"
	iapi "github.com/wardkeep/wardkeep/internal/server"
	"github.com/wardkeep/wardkeep/internal/service"
	"github.com/wardkeep/wardkeep/internal/supervisor"
	"github.com/prometheus/client_golang/prometheus"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Kind = service.Kind

const (
	Database    = service.Database
	AuthServer  = service.AuthServer
	WorldServer = service.WorldServer
	Client      = service.Client
	WebServer   = service.WebServer
)

var ParseKind = service.ParseKind

type ServiceStatus = supervisor.ServiceStatus

type HistorySink = history.Sink

type DetectorTool = detector.Tool

var (
	ErrAlreadyRunning = supervisor.ErrAlreadyRunning
	ErrNotRunning     = supervisor.ErrNotRunning
)

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.

type Supervisor struct {
	inner *supervisor.Supervisor
	cfg   *config.Config
}

// New loads the settings file at configPath and builds a supervisor over it.
func New(configPath string, logger *slog.Logger) (*Supervisor, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return &Supervisor{inner: supervisor.New(cfg, logger), cfg: cfg}, nil
}

func (s *Supervisor) Start(k Kind) error                     { return s.inner.Start(k) }
func (s *Supervisor) Stop(k Kind) error                      { return s.inner.Stop(k) }
func (s *Supervisor) StopAll()                               { s.inner.StopAll() }
func (s *Supervisor) Status() []ServiceStatus                { return s.inner.Status() }
func (s *Supervisor) SetAutorestart(enabled bool) error      { return s.inner.SetAutorestart(enabled) }
func (s *Supervisor) Autorestart() bool                      { return s.inner.Autorestart() }
func (s *Supervisor) SetHistorySinks(sinks ...HistorySink)   { s.inner.SetHistorySinks(sinks...) }
func (s *Supervisor) SetDetector(tool DetectorTool)          { s.inner.SetDetector(tool) }
func (s *Supervisor) StartupSweep(ctx context.Context) error { return s.inner.StartupSweep(ctx) }
func (s *Supervisor) TriggerAutorestart()                    { s.inner.TriggerAutorestart() }
func (s *Supervisor) RunTickers()                            { s.inner.RunTickers() }
func (s *Supervisor) Close()                                 { s.inner.Close() }

// SetServicePath stores the executable path for the kind in the settings file.
func (s *Supervisor) SetServicePath(k Kind, path string) error { return s.cfg.SetPath(k, path) }

// ServicePath returns the stored executable path for the kind.
func (s *Supervisor) ServicePath(k Kind) string { return s.cfg.PathFor(k) }

// HTTPHandler returns the control API handler mounted under basePath.
func (s *Supervisor) HTTPHandler(basePath string) http.Handler {
	return iapi.NewRouter(s.inner, basePath).Handler()
}

// RegisterMetrics registers the wardkeep collectors on r.
func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }

// MetricsHandler returns the prometheus scrape handler.
func MetricsHandler() http.Handler { return metrics.Handler() }
