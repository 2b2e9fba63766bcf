package app

import (
	"context"
	"fmt"

	"github.com/lchen64/pid-diffusion/internal/ctxlog"
	"github.com/lchen64/pid-diffusion/internal/dag"
	"github.com/lchen64/pid-diffusion/internal/executor"
)

// Run executes the loaded launch plan.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	a.logger.Debug("Building dependency graph from launch plan...")
	graph, err := dag.Build(ctx, a.model.Plan)
	if err != nil {
		return fmt.Errorf("failed to build dependency graph: %w", err)
	}
	a.logger.Debug("Dependency graph built.", "node_count", len(graph.Nodes))

	if a.appConfig.StatusPort > 0 {
		a.status = newStatusServer(a.appConfig.StatusPort, graph)
		a.status.start(ctx)
		defer a.status.stop(ctx)
	}

	if len(graph.Nodes) == 0 {
		a.logger.Warn("No runs found in plan, nothing to launch.")
		return nil
	}

	if a.appConfig.DryRun {
		a.logger.Info("Dry run: printing resolved command lines only.")
	} else {
		a.logger.Info("Starting launch plan execution.", "runs", len(graph.Nodes), "workers", a.appConfig.Workers)
	}

	exec := executor.New(graph, a.model.Plan, a, a.appConfig.Workers)
	if err := exec.Run(ctx); err != nil {
		if executor.IsCancellation(err) && ctx.Err() != nil {
			a.logger.Warn("Execution cancelled.", "reason", ctx.Err())
			return err
		}
		return err
	}

	a.logger.Info("Launch plan finished.")
	a.logger.Debug("App.Run method finished.")
	return nil
}
