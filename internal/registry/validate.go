package registry

import (
	"context"
	"fmt"

	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/ctxlog"
)

// ValidateRegistry checks the integrity of the loaded trainer definitions
// and of the launch plan that references them. It catches mistakes at
// startup, before any trainer process is spawned.
func (r *Registry) ValidateRegistry(ctx context.Context, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)

	for trainerType, def := range r.TrainerRegistry {
		if def.Entrypoint == "" {
			return fmt.Errorf("trainer %q has no entrypoint", trainerType)
		}
		for _, flag := range def.Flags {
			if flag.Name == "" {
				return fmt.Errorf("trainer %q declares a flag with an empty name", trainerType)
			}
		}
	}
	logger.Debug("Trainer definitions validated.", "count", len(r.TrainerRegistry))

	if model.Plan == nil {
		return nil
	}

	seen := make(map[string]*config.Run, len(model.Plan.Runs))
	for _, run := range model.Plan.Runs {
		if _, ok := r.TrainerRegistry[run.TrainerType]; !ok {
			return fmt.Errorf("run %q references unknown trainer type %q", run.Name, run.TrainerType)
		}
		if prev, ok := seen[run.Name]; ok {
			return fmt.Errorf("duplicate run instance name %q (trainers %q and %q)",
				run.Name, prev.TrainerType, run.TrainerType)
		}
		seen[run.Name] = run
	}

	for _, run := range model.Plan.Runs {
		for _, dep := range run.DependsOn {
			if dep == run.Name {
				return fmt.Errorf("run %q depends on itself", run.Name)
			}
			if _, ok := seen[dep]; !ok {
				return fmt.Errorf("run %q depends on unknown run %q", run.Name, dep)
			}
		}
	}

	logger.Debug("Launch plan validated.", "runs", len(model.Plan.Runs))
	return nil
}
