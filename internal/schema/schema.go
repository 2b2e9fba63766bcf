// Package schema defines the HCL-facing struct mapping for launch plans
// and trainer manifests. These structs are decoded with gohcl and then
// translated into the format-agnostic config model.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// --- Launch Plan Structures ---

// RunArgs represents the content of the 'arguments' block within a run.
type RunArgs struct {
	Body hcl.Body `hcl:",remain"`
}

// EnvBlock represents the content of the 'env' block within a run.
type EnvBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// Run represents a `run` block from a user's plan file. It is a
// launchable instance of a defined trainer.
type Run struct {
	TrainerType string    `hcl:"trainer_type,label"`
	Name        string    `hcl:"instance_name,label"`
	Arguments   *RunArgs  `hcl:"arguments,block"`
	Env         *EnvBlock `hcl:"env,block"`
	DependsOn   []string  `hcl:"depends_on,optional"`
}

// --- Trainer Manifest Schemas ---

// FlagDefinition defines a single command-line flag accepted by a trainer.
type FlagDefinition struct {
	Name        string         `hcl:"name,label"`
	Kind        hcl.Expression `hcl:"type"`
	Description string         `hcl:"description,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
	Required    bool           `hcl:"required,optional"`
}

// TrainerDefinition represents the HCL manifest for an external training
// entrypoint. Flag declaration order is meaningful: it is the order the
// flags appear in the assembled argument vector.
type TrainerDefinition struct {
	Type        string            `hcl:"type,label"`
	Description string            `hcl:"description,optional"`
	Entrypoint  string            `hcl:"entrypoint"`
	Flags       []*FlagDefinition `hcl:"flag,block"`
}

// FileConfig represents the top-level structure of any configuration
// file. Trainer manifests and run blocks may live in the same file or be
// split across directories; the loader merges everything it finds.
type FileConfig struct {
	Trainers []*TrainerDefinition `hcl:"trainer,block"`
	Runs     []*Run               `hcl:"run,block"`
	Body     hcl.Body             `hcl:",remain"`
}
