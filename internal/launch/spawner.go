package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/lchen64/pid-diffusion/internal/ctxlog"
)

// Spawner runs one resolved launch plan to completion and returns the
// child's exit code. Implementations must not retry or reinterpret the
// child's status.
type Spawner interface {
	Spawn(ctx context.Context, plan *Plan, stdout, stderr io.Writer) (int, error)
}

// ExecSpawner is the real Spawner: it execs the interpreter and blocks
// until the child terminates or the context is cancelled.
type ExecSpawner struct {
	// ShowProgress enables the step progress bar driven by the child's
	// stdout. It requires plan.TotalSteps to be known.
	ShowProgress bool
}

// Spawn starts the trainer process and waits for it. A non-zero child
// exit is not an error here; it is reported through the returned code so
// the caller decides how to surface it. The returned error covers only
// failures to spawn or to stream output.
func (s *ExecSpawner) Spawn(ctx context.Context, plan *Plan, stdout, stderr io.Writer) (int, error) {
	logger := ctxlog.FromContext(ctx).With("run", plan.Run)

	cmdline := plan.CommandLine()
	cmd := exec.CommandContext(ctx, cmdline[0], cmdline[1:]...)
	cmd.Env = plan.Env
	cmd.Stderr = stderr

	out := stdout
	var progress *stepProgress
	if s.ShowProgress && plan.TotalSteps > 0 {
		progress = newStepProgress(plan.TotalSteps, stderr)
		out = progress.Tee(stdout)
		defer progress.Close()
	}
	cmd.Stdout = out

	logger.Info("Launching trainer process.",
		"python", plan.Python, "entrypoint", plan.Entrypoint, "logdir", plan.LogDir)
	logger.Debug("Child command line.", "cmdline", cmdline)

	err := cmd.Run()
	if err == nil {
		logger.Info("Trainer process finished.", "exit_code", 0)
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		logger.Warn("Trainer process exited non-zero.", "exit_code", code)
		if ctx.Err() != nil {
			// Cancellation killed the child; surface the cancellation
			// rather than the synthetic exit status.
			return code, ctx.Err()
		}
		return code, nil
	}

	return -1, fmt.Errorf("failed to launch %s: %w", plan.Entrypoint, err)
}
