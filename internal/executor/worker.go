package executor

import (
	"context"

	"github.com/lchen64/pid-diffusion/internal/ctxlog"
	"github.com/lchen64/pid-diffusion/internal/node"
)

// worker is the core processing loop for a single concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *node.Node, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for n := range readyChan {
		workerLogger := logger.With("workerID", workerID, "run", n.ID())

		if ctx.Err() != nil {
			n.Skip(ctx.Err(), &e.wg)
			// Its dependents will never be unlocked; skip them too or
			// Run blocks on the wait group forever.
			e.skipDependents(ctx, n)
			continue
		}

		workerLogger.Debug("Worker picked up run.")
		n.SetState(node.Running)

		exitCode, err := e.runner.Launch(ctx, n.Run)
		n.SetOutcome(exitCode, err)

		if err != nil {
			workerLogger.Error("Run failed.", "error", err, "exit_code", exitCode)
			n.SetState(node.Failed)
			cancel()
			e.skipDependents(ctx, n)
			e.wg.Done()
			continue
		}

		workerLogger.Debug("Run succeeded.")
		n.SetState(node.Done)
		e.unlockDependents(ctx, n, readyChan)
		e.wg.Done()
	}

	logger.Debug("Worker finished.", "workerID", workerID)
}
