package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/wardkeep/wardkeep/internal/history"
)

func TestSinkRoundTrip(t *testing.T) {
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	events := []history.Event{
		{Type: history.EventStart, OccurredAt: time.Now(), Record: history.Record{Service: "worldserver", PID: 101, State: "running"}},
		{Type: history.EventStop, OccurredAt: time.Now(), Record: history.Record{Service: "worldserver", PID: 101, State: "stopped", Detail: "graceful"}},
		{Type: history.EventUnexpectedExit, OccurredAt: time.Now(), Record: history.Record{Service: "authserver", PID: 102, State: "stopped", ExitCode: 1}},
	}
	for _, e := range events {
		if err := s.Send(ctx, e); err != nil {
			t.Fatalf("Send(%s): %v", e.Type, err)
		}
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM service_history`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(events) {
		t.Errorf("rows = %d, want %d", n, len(events))
	}

	var detail string
	err = s.db.QueryRowContext(ctx,
		`SELECT detail FROM service_history WHERE event = 'stop' AND service = 'worldserver'`).Scan(&detail)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if detail != "graceful" {
		t.Errorf("detail = %q, want graceful", detail)
	}
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Error("expected error for empty DSN")
	}
}

func TestSQLitePrefixStripped(t *testing.T) {
	s, err := New("sqlite://:memory:")
	if err != nil {
		t.Fatalf("New with prefix: %v", err)
	}
	_ = s.Close()
}
