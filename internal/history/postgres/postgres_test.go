package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/wardkeep/wardkeep/internal/history"
)

func TestPostgresSink_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			t.Errorf("Failed to terminate PostgreSQL container: %v", err)
		}
	}()

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	sink, err := New(connStr)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	events := []history.Event{
		{Type: history.EventStart, OccurredAt: time.Now(), Record: history.Record{Service: "database", PID: 11, State: "running"}},
		{Type: history.EventStop, OccurredAt: time.Now(), Record: history.Record{Service: "database", PID: 11, State: "stopped", Detail: "graceful"}},
	}
	for _, e := range events {
		if err := sink.Send(ctx, e); err != nil {
			t.Fatalf("Send(%s): %v", e.Type, err)
		}
	}

	var n int
	if err := sink.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM service_history`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != len(events) {
		t.Errorf("rows = %d, want %d", n, len(events))
	}
}

func TestNewRejectsEmptyDSN(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty DSN")
	}
}
