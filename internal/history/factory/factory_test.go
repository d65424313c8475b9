package factory

import "testing"

func TestSQLiteDSNs(t *testing.T) {
	for _, dsn := range []string{":memory:", "sqlite://:memory:"} {
		s, err := NewSinkFromDSN(dsn)
		if err != nil {
			t.Errorf("NewSinkFromDSN(%q): %v", dsn, err)
			continue
		}
		if s == nil {
			t.Errorf("NewSinkFromDSN(%q) returned nil sink", dsn)
		}
	}
}

func TestEmptyAndUnsupportedDSNs(t *testing.T) {
	if _, err := NewSinkFromDSN(""); err == nil {
		t.Error("expected error for empty DSN")
	}
	if _, err := NewSinkFromDSN("redis://localhost:6379"); err == nil {
		t.Error("expected error for unsupported scheme")
	}
}

func TestClickHouseDSNMissingHost(t *testing.T) {
	if _, err := NewSinkFromDSN("clickhouse://"); err == nil {
		t.Error("expected error for clickhouse DSN without host")
	}
}
