package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegisterAndRecord(t *testing.T) {
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// Second call is a no-op.
	if err := Register(prometheus.DefaultRegisterer); err != nil {
		t.Fatalf("Register (second): %v", err)
	}

	IncStart("worldserver")
	IncStop("worldserver", "graceful")
	IncUnexpectedExit("authserver")
	IncAutorestart()
	IncSweepKill("mysqld")
	RecordStateTransition("database", "stopped", "starting")
	SetCurrentState("database", "starting", true)
	SetCountdown("worldserver", 120)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)
	body := rec.Body.String()

	for _, want := range []string{
		"wardkeep_service_starts_total",
		"wardkeep_service_stops_total",
		"wardkeep_service_unexpected_exits_total",
		"wardkeep_service_autorestart_triggers_total",
		"wardkeep_sweep_force_kills_total",
		"wardkeep_service_state_transitions_total",
		"wardkeep_service_current_state",
		"wardkeep_service_countdown_seconds",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}
