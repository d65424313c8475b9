package detector

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestFakeToolTerminateRemovesCooperative(t *testing.T) {
	f := NewFakeTool("authserver")
	ctx := context.Background()

	ok, err := f.Running(ctx, "authserver")
	if err != nil || !ok {
		t.Fatalf("Running = %v, %v; want true", ok, err)
	}
	if err := f.Terminate(ctx, "authserver"); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	ok, _ = f.Running(ctx, "authserver")
	if ok {
		t.Error("cooperative image still running after Terminate")
	}
}

func TestFakeToolStubbornNeedsKill(t *testing.T) {
	f := NewFakeTool("worldserver")
	f.MarkStubborn("worldserver")
	ctx := context.Background()

	_ = f.Terminate(ctx, "worldserver")
	if ok, _ := f.Running(ctx, "worldserver"); !ok {
		t.Fatal("stubborn image disappeared on Terminate")
	}
	_ = f.Kill(ctx, "worldserver")
	if ok, _ := f.Running(ctx, "worldserver"); ok {
		t.Error("image still running after Kill")
	}
}

func TestPIDAlive(t *testing.T) {
	// Our own pid is alive by definition.
	if !PIDAlive(os.Getpid()) {
		t.Error("PIDAlive(self) = false")
	}
	if PIDAlive(-1) || PIDAlive(0) {
		t.Error("PIDAlive accepted a non-positive pid")
	}
}

func TestImageToolNoMatchIsNotAnError(t *testing.T) {
	tool := NewImageTool()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// A name no real process should carry.
	const img = "wardkeep-no-such-image-5c1b"
	ok, err := tool.Running(ctx, img)
	if err != nil {
		t.Fatalf("Running: %v", err)
	}
	if ok {
		t.Fatalf("phantom image %q reported running", img)
	}
	if err := tool.Terminate(ctx, img); err != nil {
		t.Errorf("Terminate with no match: %v", err)
	}
	if err := tool.Kill(ctx, img); err != nil {
		t.Errorf("Kill with no match: %v", err)
	}
}
