package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/lchen64/pid-diffusion/internal/launch"
)

// FakeSpawner is a launch.Spawner that records every plan it is asked to
// run instead of starting a process. Exit codes are scripted per run
// name; unscripted runs succeed.
type FakeSpawner struct {
	mu       sync.Mutex
	plans    []*launch.Plan
	ExitCode map[string]int

	// Block, when set, makes Spawn wait until the channel is closed or
	// the context is cancelled, simulating a long-running trainer.
	Block chan struct{}
}

// Spawn records the plan and returns the scripted exit code. Like the
// real spawner, a cancelled context surfaces the context error.
func (f *FakeSpawner) Spawn(ctx context.Context, plan *launch.Plan, _, _ io.Writer) (int, error) {
	f.mu.Lock()
	f.plans = append(f.plans, plan)
	code := 0
	if f.ExitCode != nil {
		code = f.ExitCode[plan.Run]
	}
	block := f.Block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return -1, ctx.Err()
		case <-block:
		}
	}
	return code, nil
}

// Plans returns a copy of every recorded plan in launch order.
func (f *FakeSpawner) Plans() []*launch.Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*launch.Plan(nil), f.plans...)
}

// LaunchCount returns how many processes the app would have spawned.
func (f *FakeSpawner) LaunchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.plans)
}
