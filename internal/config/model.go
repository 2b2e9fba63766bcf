package config

import (
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Model is the unified, format-agnostic representation of the entire
// application configuration: every known trainer manifest plus the launch
// plan the user asked to execute.
type Model struct {
	Trainers map[string]*TrainerDefinition
	Plan     *Plan
}

// Plan represents the user's launch plan: the set of training runs to
// execute, possibly ordered by dependencies between them.
type Plan struct {
	Runs []*Run
}

// Run is the format-agnostic representation of a `run` block. It is a
// launchable instance of a defined trainer.
type Run struct {
	TrainerType string
	Name        string
	Arguments   map[string]hcl.Expression
	Env         map[string]hcl.Expression
	DependsOn   []string
}

// ID returns the canonical identifier for a run instance within a plan.
func (r *Run) ID() string {
	return r.TrainerType + "." + r.Name
}

// --- Trainer Manifest Models ---

// TrainerDefinition is the format-agnostic representation of a trainer's
// manifest: the external entrypoint script and its ordered flag surface.
type TrainerDefinition struct {
	Type        string
	Description string
	// Entrypoint is the script handed to the Python interpreter,
	// e.g. "cm_train.py".
	Entrypoint string
	// Flags holds the flag definitions in manifest declaration order.
	// That order is the argument-vector order, so it must be preserved.
	Flags []*FlagDefinition

	indexOnce sync.Once
	byName    map[string]*FlagDefinition
}

// Flag returns the definition for the named flag, or nil if the trainer
// does not define it. Safe for concurrent use: executor workers share
// trainer definitions.
func (d *TrainerDefinition) Flag(name string) *FlagDefinition {
	d.indexOnce.Do(func() {
		d.byName = make(map[string]*FlagDefinition, len(d.Flags))
		for _, f := range d.Flags {
			d.byName[f.Name] = f
		}
	})
	return d.byName[name]
}

// FlagDefinition defines a single command-line flag accepted by a trainer
// entrypoint. A flag with neither a default nor a provided argument is an
// error when Required is true; otherwise it is simply omitted from the
// argument vector.
type FlagDefinition struct {
	Name        string
	Kind        FlagKind
	Description string
	Default     *cty.Value
	Required    bool
}
