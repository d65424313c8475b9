package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wardkeep/wardkeep/internal/metrics"
	"github.com/wardkeep/wardkeep/internal/service"
	"github.com/wardkeep/wardkeep/internal/supervisor"
)

// Router exposes the supervisor over HTTP for the CLI subcommands.
// Endpoints:
//   GET  {basePath}/status                 all five services
//   POST {basePath}/start?service=...      launch one service
//   POST {basePath}/stop?service=...       staged stop plus stray sweep
//   POST {basePath}/autorestart?enabled=   persist the autorestart flag
//   POST {basePath}/sweep                  stray sweep across all kinds
//   GET  {basePath}/healthz                liveness
//   GET  {basePath}/metrics               prometheus scrape

type Router struct {
	sup      *supervisor.Supervisor
	basePath string
}

func NewRouter(sup *supervisor.Supervisor, basePath string) *Router {
	return &Router{sup: sup, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server or mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/status", r.handleStatus)
	group.POST("/start", r.handleStart)
	group.POST("/stop", r.handleStop)
	group.POST("/autorestart", r.handleAutorestart)
	group.POST("/sweep", r.handleSweep)
	group.GET("/healthz", r.handleHealthz)
	group.GET("/metrics", gin.WrapH(metrics.Handler()))
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, sup *supervisor.Supervisor) *http.Server {
	r := NewRouter(sup, basePath)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

func (r *Router) serviceParam(c *gin.Context) (service.Kind, bool) {
	name := c.Query("service")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "service query param required"})
		return 0, false
	}
	k, err := service.ParseKind(name)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return 0, false
	}
	return k, true
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.sup.Status())
}

func (r *Router) handleStart(c *gin.Context) {
	k, ok := r.serviceParam(c)
	if !ok {
		return
	}
	if err := r.sup.Start(k); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, supervisor.ErrAlreadyRunning) {
			code = http.StatusConflict
		}
		writeJSON(c, code, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStop(c *gin.Context) {
	k, ok := r.serviceParam(c)
	if !ok {
		return
	}
	if err := r.sup.Stop(k); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, supervisor.ErrNotRunning) {
			code = http.StatusConflict
		}
		writeJSON(c, code, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleAutorestart(c *gin.Context) {
	raw := c.Query("enabled")
	enabled, err := strconv.ParseBool(raw)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "enabled query param must be a boolean"})
		return
	}
	if err := r.sup.SetAutorestart(enabled); err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleSweep(c *gin.Context) {
	if err := r.sup.StartupSweep(c.Request.Context()); err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleHealthz(c *gin.Context) {
	writeJSON(c, http.StatusOK, okResp{OK: true})
}
