// Package testutil provides the shared harness for integration-style
// tests: it materializes trainer manifests and launch plans on disk,
// boots the full application with a fake spawner, and captures logs and
// every launch the app attempted.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lchen64/pid-diffusion/internal/app"
	"github.com/lchen64/pid-diffusion/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of one harness run.
type HarnessResult struct {
	Err       error
	Stdout    string
	LogOutput string
	Spawner   *FakeSpawner
	App       *app.App
}

// RunPlanTest writes the given files into a fresh temp directory, boots
// the application against them with a FakeSpawner, runs the plan, and
// returns everything the test needs to assert on. File paths are
// relative to the temp root; trainer manifests go under "trainers/".
// Startup panics are recovered into HarnessResult.Err.
func RunPlanTest(t *testing.T, files map[string]string, cfg *app.Config) *HarnessResult {
	t.Helper()
	return RunPlanTestWithContext(context.Background(), t, files, cfg)
}

// RunPlanTestWithContext is RunPlanTest with a caller-provided context,
// for cancellation tests.
func RunPlanTestWithContext(ctx context.Context, t *testing.T, files map[string]string, cfg *app.Config) *HarnessResult {
	t.Helper()
	return RunPlanTestWithSpawner(ctx, t, files, cfg, &FakeSpawner{})
}

// RunPlanTestWithSpawner lets the test pre-script the spawner, e.g. to
// make a particular run fail with a specific exit code.
func RunPlanTestWithSpawner(ctx context.Context, t *testing.T, files map[string]string, cfg *app.Config, spawner *FakeSpawner) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	// Relative paths in the config and in resolved log directories are
	// anchored at the temp root.
	t.Chdir(tmpDir)

	if cfg == nil {
		cfg = &app.Config{PlanPath: "runs", TrainersPath: "trainers", Workers: 1}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	stdout := &SafeBuffer{}
	logBuffer := &SafeBuffer{}

	var testApp *app.App
	var panicErr any
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = r
			}
		}()
		testApp = app.NewApp(stdout, logBuffer, cfg, hcl.NewLoader(), app.WithSpawner(spawner))
	}()

	if panicErr != nil {
		return &HarnessResult{
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			Stdout:    stdout.String(),
			LogOutput: logBuffer.String(),
			Spawner:   spawner,
		}
	}

	runErr := testApp.Run(ctx)
	return &HarnessResult{
		Err:       runErr,
		Stdout:    stdout.String(),
		LogOutput: logBuffer.String(),
		Spawner:   spawner,
		App:       testApp,
	}
}
