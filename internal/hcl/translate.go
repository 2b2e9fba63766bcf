// This file contains the logic for translating HCL schema structs into
// the format-agnostic configuration model defined in the config package.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/schema"
)

// translateRun converts the HCL-specific run schema into the agnostic model.
func (l *Loader) translateRun(r *schema.Run) (*config.Run, error) {
	run := &config.Run{
		TrainerType: r.TrainerType,
		Name:        r.Name,
		DependsOn:   r.DependsOn,
	}

	var err error
	if r.Arguments != nil {
		if run.Arguments, err = extractBodyAttributes(r.Arguments.Body); err != nil {
			return nil, fmt.Errorf("in run %q: %w", run.ID(), err)
		}
	}
	if run.Arguments == nil {
		run.Arguments = map[string]hcl.Expression{}
	}
	if r.Env != nil {
		if run.Env, err = extractBodyAttributes(r.Env.Body); err != nil {
			return nil, fmt.Errorf("in run %q: %w", run.ID(), err)
		}
	}
	return run, nil
}

// translateTrainerDefinition converts the HCL-specific trainer schema
// into the agnostic model, preserving flag declaration order.
func (l *Loader) translateTrainerDefinition(ctx context.Context, t *schema.TrainerDefinition) (*config.TrainerDefinition, error) {
	def := &config.TrainerDefinition{
		Type:        t.Type,
		Description: t.Description,
		Entrypoint:  t.Entrypoint,
		Flags:       make([]*config.FlagDefinition, 0, len(t.Flags)),
	}

	seen := make(map[string]bool, len(t.Flags))
	for _, f := range t.Flags {
		if seen[f.Name] {
			return nil, fmt.Errorf("trainer %q declares flag %q twice", t.Type, f.Name)
		}
		seen[f.Name] = true

		flag, err := translateFlagDefinition(ctx, f, t.Type)
		if err != nil {
			return nil, err
		}
		def.Flags = append(def.Flags, flag)
	}
	return def, nil
}

// translateFlagDefinition processes a single flag block, resolving its
// kind keyword and type-checking its default value.
func translateFlagDefinition(ctx context.Context, f *schema.FlagDefinition, trainerType string) (*config.FlagDefinition, error) {
	kind, err := flagKindFromExpr(ctx, f.Kind)
	if err != nil {
		return nil, fmt.Errorf("in trainer %q, flag %q: %w", trainerType, f.Name, err)
	}

	var defaultVal *cty.Value
	if f.Default != nil && !f.Default.IsNull() {
		converted, err := convert.Convert(*f.Default, kind.CtyType())
		if err != nil {
			return nil, fmt.Errorf("in trainer %q, flag %q: default is not a valid %s: %w",
				trainerType, f.Name, kind, err)
		}
		defaultVal = &converted
	}

	return &config.FlagDefinition{
		Name:        f.Name,
		Kind:        kind,
		Description: f.Description,
		Default:     defaultVal,
		Required:    f.Required,
	}, nil
}
