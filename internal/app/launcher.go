package app

import (
	"context"
	"fmt"
	"time"

	"github.com/zclconf/go-cty/cty"

	"github.com/lchen64/pid-diffusion/internal/argv"
	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/ctxlog"
	"github.com/lchen64/pid-diffusion/internal/environ"
	"github.com/lchen64/pid-diffusion/internal/launch"
	"github.com/lchen64/pid-diffusion/internal/rundir"
)

// totalStepsFlag is the trainer flag the progress display keys on.
const totalStepsFlag = "total_training_steps"

// Launch resolves one run into a launch plan and executes it. It
// implements executor.Runner. A non-zero trainer exit is returned as
// *launch.ChildExitError so the process exit status can mirror it.
func (a *App) Launch(ctx context.Context, run *config.Run) (int, error) {
	logger := ctxlog.FromContext(ctx).With("run", run.ID())

	plan, err := a.resolve(ctx, run)
	if err != nil {
		return -1, fmt.Errorf("failed to resolve run %q: %w", run.ID(), err)
	}

	if a.appConfig.DryRun {
		fmt.Fprintln(a.outW, plan.Render())
		return 0, nil
	}

	rec := rundir.NewRecord(run.TrainerType, run.Name, plan.Python, plan.Entrypoint, plan.Argv, plan.Exports)
	if err := rundir.Prepare(ctx, plan.LogDir, rec); err != nil {
		return -1, err
	}

	started := time.Now()
	code, err := a.spawner.Spawn(ctx, plan, a.outW, a.errW)
	duration := time.Since(started)

	if ferr := rundir.Finalize(ctx, plan.LogDir, rec, code); ferr != nil {
		logger.Warn("Could not finalize run snapshot.", "error", ferr)
	}
	a.notifier.Notify(ctx, RunEvent{
		RunID:    rec.RunID,
		Run:      run.Name,
		Trainer:  run.TrainerType,
		ExitCode: code,
		LogDir:   plan.LogDir,
		Duration: duration.Seconds(),
	})

	if err != nil {
		return code, err
	}
	if code != 0 {
		return code, &launch.ChildExitError{Run: run.ID(), Code: code}
	}
	return 0, nil
}

// resolve evaluates a run's arguments and environment against its
// trainer definition and assembles the fully resolved launch plan.
func (a *App) resolve(ctx context.Context, run *config.Run) (*launch.Plan, error) {
	def, ok := a.registry.Trainer(run.TrainerType)
	if !ok {
		return nil, fmt.Errorf("unknown trainer type %q", run.TrainerType)
	}

	values, err := a.converter.EvalArguments(ctx, run.Arguments, def)
	if err != nil {
		return nil, err
	}

	args, err := argv.Build(def, values)
	if err != nil {
		return nil, err
	}

	runEnv, err := a.converter.EvalEnv(ctx, run.Env)
	if err != nil {
		return nil, err
	}
	profile, err := a.defaults.ActiveProfile()
	if err != nil {
		return nil, err
	}

	overrides := environ.Overrides{LogDir: a.appConfig.LogDir, Devices: a.appConfig.Devices}
	fullEnv, exports := environ.Build(environBase(), profile, runEnv, overrides, run.Name)

	python := firstNonEmpty(a.appConfig.Python, a.defaults.Python, "python")

	return &launch.Plan{
		Trainer:    run.TrainerType,
		Run:        run.Name,
		Python:     python,
		Entrypoint: def.Entrypoint,
		Argv:       args,
		Env:        fullEnv,
		Exports:    exports,
		LogDir:     environ.LogDir(exports),
		TotalSteps: totalSteps(def, values),
	}, nil
}

// totalSteps extracts the run's step budget for the progress display,
// falling back to the manifest default. Zero means unknown.
func totalSteps(def *config.TrainerDefinition, values map[string]cty.Value) int {
	flag := def.Flag(totalStepsFlag)
	if flag == nil || flag.Kind != config.KindInt {
		return 0
	}

	val, ok := values[totalStepsFlag]
	if !ok {
		if flag.Default == nil {
			return 0
		}
		val = *flag.Default
	}

	steps, _ := val.AsBigFloat().Int64()
	return int(steps)
}
