// Package executor orchestrates the end-to-end execution of a launch
// graph: it manages the worker pool, dispatches runs whose dependencies
// are met, and skips dependents of failed runs.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/ctxlog"
	"github.com/lchen64/pid-diffusion/internal/dag"
	"github.com/lchen64/pid-diffusion/internal/node"
)

// Runner launches a single training run to completion. It returns the
// trainer's exit code and a non-nil error when the run did not succeed;
// a non-zero child exit is reported as *launch.ChildExitError.
type Runner interface {
	Launch(ctx context.Context, run *config.Run) (int, error)
}

// Executor drives a launch graph with a fixed-size worker pool. Workers
// default to one because training runs normally own the machine's
// accelerators exclusively; raising the count is for CPU-bound or
// multi-host plans.
type Executor struct {
	graph   *dag.Graph
	plan    *config.Plan
	runner  Runner
	workers int

	wg sync.WaitGroup
}

// New creates an executor for the given graph.
func New(graph *dag.Graph, plan *config.Plan, runner Runner, workers int) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{graph: graph, plan: plan, runner: runner, workers: workers}
}

// Run executes every node in the graph and blocks until all have
// finished, failed, or been skipped. The first failure cancels the
// remaining work and is returned.
func (e *Executor) Run(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	readyChan := make(chan *node.Node, len(e.graph.Nodes))
	e.wg.Add(len(e.graph.Nodes))

	for i := 0; i < e.workers; i++ {
		go e.worker(ctx, readyChan, cancel, i)
	}

	roots := e.graph.Roots(e.plan)
	logger.Debug("Seeding ready queue.", "roots", len(roots), "workers", e.workers)
	for _, n := range roots {
		readyChan <- n
	}

	e.wg.Wait()
	close(readyChan)

	return e.firstFailure()
}

// firstFailure returns the error of the first failed node in plan order,
// preferring real failures over cascade skips.
func (e *Executor) firstFailure() error {
	var skipErr error
	for _, run := range e.plan.Runs {
		n := e.graph.Nodes[run.ID()]
		switch n.GetState() {
		case node.Failed:
			return n.Err()
		case node.Skipped:
			if skipErr == nil && n.Err() != nil {
				skipErr = n.Err()
			}
		}
	}
	return skipErr
}

// skipDependents transitively marks every dependent of a failed node as
// skipped.
func (e *Executor) skipDependents(ctx context.Context, failed *node.Node) {
	logger := ctxlog.FromContext(ctx)

	dependents, err := e.graph.Dependents(failed.ID())
	if err != nil {
		logger.Error("Failed to get dependents for failed node.", "nodeID", failed.ID(), "error", err)
		return
	}
	for _, dep := range dependents {
		if dep.GetState() != node.Pending {
			continue
		}
		logger.Warn("Skipping run: dependency failed.", "run", dep.ID(), "failed_dependency", failed.ID())
		dep.Skip(fmt.Errorf("dependency %q failed: %w", failed.ID(), failed.Err()), &e.wg)
		e.skipDependents(ctx, dep)
	}
}

// unlockDependents releases dependents whose last dependency just
// completed.
func (e *Executor) unlockDependents(ctx context.Context, done *node.Node, readyChan chan *node.Node) {
	logger := ctxlog.FromContext(ctx)

	dependents, err := e.graph.Dependents(done.ID())
	if err != nil {
		logger.Error("Failed to get dependents for completed node.", "nodeID", done.ID(), "error", err)
		return
	}
	for _, dep := range dependents {
		if dep.DecrementDepCount() == 0 {
			logger.Debug("Unlocking dependent run.", "dependentID", dep.ID())
			readyChan <- dep
		}
	}
}

// IsCancellation reports whether an error is just context cancellation.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
