package service

import (
	"testing"
	"time"
)

func TestPolicyForAllKinds(t *testing.T) {
	for _, k := range Kinds() {
		p := PolicyFor(k)
		if p.Kind != k {
			t.Errorf("policy for %s has kind %s", k, p.Kind)
		}
		if p.Grace <= 0 {
			t.Errorf("policy for %s has no grace period", k)
		}
		if len(p.Images) == 0 {
			t.Errorf("policy for %s has no sweep images", k)
		}
		if len(p.StopStages) == 0 {
			t.Errorf("policy for %s has no stop stages", k)
		}
		if p.LogFileName == "" {
			t.Errorf("policy for %s has no log file name", k)
		}
	}
}

func TestPolicyForUnknownKindPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown kind")
		}
	}()
	PolicyFor(Kind(99))
}

func TestGracePeriods(t *testing.T) {
	want := map[Kind]time.Duration{
		Database:    10 * time.Second,
		AuthServer:  10 * time.Second,
		WorldServer: 120 * time.Second,
		Client:      15 * time.Second,
		WebServer:   10 * time.Second,
	}
	for k, g := range want {
		if got := PolicyFor(k).Grace; got != g {
			t.Errorf("%s grace = %v, want %v", k, got, g)
		}
	}
}

func TestDatabaseStopEscalationBudget(t *testing.T) {
	p := PolicyFor(Database)
	if got := p.MaxStopWait(); got > 25*time.Second {
		t.Errorf("database graceful wait budget %v exceeds 25s", got)
	}
	last := p.StopStages[len(p.StopStages)-1]
	if last.Signal == SigKill {
		t.Error("kill must not appear as a graceful stage; it is the unconditional fallback")
	}
}

func TestParseKind(t *testing.T) {
	cases := map[string]Kind{
		"database":    Database,
		"DB":          Database,
		"mysql":       Database,
		"auth":        AuthServer,
		"authserver":  AuthServer,
		"worldserver": WorldServer,
		"world":       WorldServer,
		"client":      Client,
		"web":         WebServer,
		"webserver":   WebServer,
	}
	for in, want := range cases {
		got, err := ParseKind(in)
		if err != nil {
			t.Fatalf("ParseKind(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %s, want %s", in, got, want)
		}
	}
	if _, err := ParseKind("nosuch"); err == nil {
		t.Error("expected error for unknown service name")
	}
}

func TestKindStringRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("round trip for %s failed: %v", k, err)
		}
	}
}
