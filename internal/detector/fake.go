package detector

import (
	"context"
	"sync"
)

// FakeTool is an in-memory Tool for tests and dry runs. Images registered
// as stubborn survive Terminate and only disappear on Kill.
type FakeTool struct {
	mu       sync.Mutex
	running  map[string]bool
	stubborn map[string]bool

	TermCalls []string
	KillCalls []string
}

func NewFakeTool(running ...string) *FakeTool {
	f := &FakeTool{running: make(map[string]bool), stubborn: make(map[string]bool)}
	for _, img := range running {
		f.running[img] = true
	}
	return f
}

// MarkStubborn makes an image ignore graceful termination.
func (f *FakeTool) MarkStubborn(image string) {
	f.mu.Lock()
	f.stubborn[image] = true
	f.mu.Unlock()
}

func (f *FakeTool) Running(_ context.Context, image string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[image], nil
}

func (f *FakeTool) Terminate(_ context.Context, image string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.TermCalls = append(f.TermCalls, image)
	if !f.stubborn[image] {
		delete(f.running, image)
	}
	return nil
}

func (f *FakeTool) Kill(_ context.Context, image string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.KillCalls = append(f.KillCalls, image)
	delete(f.running, image)
	return nil
}

func (f *FakeTool) Describe() string { return "fake" }
