//go:build !windows

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/wardkeep/wardkeep/internal/config"
	"github.com/wardkeep/wardkeep/internal/detector"
	"github.com/wardkeep/wardkeep/internal/service"
	"github.com/wardkeep/wardkeep/internal/supervisor"
)

func newTestHandler(t *testing.T) (http.Handler, *config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "settings.json"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := cfg.SetExtra(config.KeyLogDir, filepath.Join(dir, "logs")); err != nil {
		t.Fatalf("set log dir: %v", err)
	}
	sup := supervisor.New(cfg, nil)
	sup.SetDetector(detector.NewFakeTool())
	t.Cleanup(sup.Close)
	return NewRouter(sup, "").Handler(), cfg, dir
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStatusListsAllServices(t *testing.T) {
	h, _, _ := newTestHandler(t)
	w := do(t, h, http.MethodGet, "/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %d", w.Code)
	}
	var sts []supervisor.ServiceStatus
	if err := json.Unmarshal(w.Body.Bytes(), &sts); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sts) != len(service.Kinds()) {
		t.Fatalf("status rows = %d, want %d", len(sts), len(service.Kinds()))
	}
	for _, st := range sts {
		if st.State != "stopped" {
			t.Fatalf("%s initial state = %q", st.Service, st.State)
		}
	}
}

func TestStartRequiresServiceParam(t *testing.T) {
	h, _, _ := newTestHandler(t)
	if w := do(t, h, http.MethodPost, "/start"); w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/start?service=bogus"); w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400 for unknown service", w.Code)
	}
}

func TestStopOnStoppedServiceConflicts(t *testing.T) {
	h, _, _ := newTestHandler(t)
	w := do(t, h, http.MethodPost, "/stop?service=worldserver")
	if w.Code != http.StatusConflict {
		t.Fatalf("code = %d, want 409", w.Code)
	}
}

func TestStartAndStopRoundTrip(t *testing.T) {
	h, cfg, dir := newTestHandler(t)
	script := filepath.Join(dir, "authserver")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 30\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	if err := cfg.SetPath(service.AuthServer, script); err != nil {
		t.Fatalf("SetPath: %v", err)
	}

	if w := do(t, h, http.MethodPost, "/start?service=auth"); w.Code != http.StatusOK {
		t.Fatalf("start code = %d: %s", w.Code, w.Body.String())
	}
	if w := do(t, h, http.MethodPost, "/start?service=auth"); w.Code != http.StatusConflict {
		t.Fatalf("second start code = %d, want 409", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/stop?service=auth"); w.Code != http.StatusOK {
		t.Fatalf("stop code = %d: %s", w.Code, w.Body.String())
	}
}

func TestAutorestartToggle(t *testing.T) {
	h, cfg, _ := newTestHandler(t)
	if w := do(t, h, http.MethodPost, "/autorestart?enabled=true"); w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	if !cfg.Autorestart() {
		t.Fatalf("flag not persisted")
	}
	if w := do(t, h, http.MethodPost, "/autorestart?enabled=nope"); w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want 400", w.Code)
	}
}

func TestSweepEndpoint(t *testing.T) {
	h, _, dir := newTestHandler(t)
	if w := do(t, h, http.MethodPost, "/sweep"); w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, "logs", "startup_cleanup.log")); err != nil {
		t.Fatalf("cleanup log missing: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	h, _, _ := newTestHandler(t)
	if w := do(t, h, http.MethodGet, "/healthz"); w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
}

func TestBasePathMount(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Load(filepath.Join(dir, "settings.json"))
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	sup := supervisor.New(cfg, nil)
	sup.SetDetector(detector.NewFakeTool())
	t.Cleanup(sup.Close)
	h := NewRouter(sup, "api").Handler()
	if w := do(t, h, http.MethodGet, "/api/healthz"); w.Code != http.StatusOK {
		t.Fatalf("code = %d", w.Code)
	}
}
