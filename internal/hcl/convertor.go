package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/ctxlog"
)

// Converter is the HCL-specific implementation of the config.Converter
// interface. Run files contain literal expressions only, so evaluation
// happens against a nil EvalContext.
type Converter struct{}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{}
}

// EvalArguments evaluates a run's argument expressions and converts each
// value to its declared flag kind. Arguments naming a flag the trainer
// does not define are rejected here, before anything is launched.
func (c *Converter) EvalArguments(
	ctx context.Context,
	args map[string]hcl.Expression,
	def *config.TrainerDefinition,
) (map[string]cty.Value, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Evaluating run arguments.", "trainer", def.Type, "count", len(args))

	values := make(map[string]cty.Value, len(args))
	for name, expr := range args {
		flagDef := def.Flag(name)
		if flagDef == nil {
			return nil, fmt.Errorf("trainer %q does not define a flag named %q", def.Type, name)
		}

		val, diags := expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate argument %q: %w", name, diags)
		}
		if val.IsNull() {
			return nil, fmt.Errorf("argument %q must not be null", name)
		}

		converted, err := convert.Convert(val, flagDef.Kind.CtyType())
		if err != nil {
			return nil, fmt.Errorf("argument %q is not a valid %s: %w", name, flagDef.Kind, err)
		}
		values[name] = converted
	}
	return values, nil
}

// EvalEnv evaluates a run's env block into plain string exports.
func (c *Converter) EvalEnv(ctx context.Context, env map[string]hcl.Expression) (map[string]string, error) {
	exports := make(map[string]string, len(env))
	for name, expr := range env {
		val, diags := expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to evaluate env entry %q: %w", name, diags)
		}

		str, err := convert.Convert(val, cty.String)
		if err != nil || str.IsNull() {
			return nil, fmt.Errorf("env entry %q must be a string-convertible value", name)
		}
		exports[name] = str.AsString()
	}
	return exports, nil
}
