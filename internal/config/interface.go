package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths (files or
	// directories), translates it into the format-agnostic model, and
	// returns a matching Converter.
	Load(ctx context.Context, paths ...string) (*Model, Converter, error)
}

// Converter is the interface for a format-specific expression evaluation
// implementation. It acts as the bridge between raw configuration
// expressions and the concrete values the launch pipeline needs.
type Converter interface {
	// EvalArguments evaluates a run's argument expressions against a
	// trainer definition, converting each value to the declared flag
	// kind. Referencing a flag the trainer does not define is an error.
	EvalArguments(
		ctx context.Context,
		args map[string]hcl.Expression,
		def *TrainerDefinition,
	) (map[string]cty.Value, error)

	// EvalEnv evaluates a run's env block into plain string exports.
	EvalEnv(ctx context.Context, env map[string]hcl.Expression) (map[string]string, error)
}
