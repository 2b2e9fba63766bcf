// Package argv assembles the ordered command-line argument vector for an
// external trainer invocation. Flag order follows the trainer manifest,
// and value rendering matches what the Python argparse entrypoints
// expect: "True"/"False" booleans, minimal decimal numbers, and
// comma-joined string lists.
package argv

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/lchen64/pid-diffusion/internal/config"
)

// Build returns the ordered `--name value` vector for one trainer
// invocation. Flags appear in manifest declaration order; a flag with an
// explicit argument uses that value, one without falls back to its
// manifest default, and one with neither is skipped unless it is
// required, which is an error.
func Build(def *config.TrainerDefinition, values map[string]cty.Value) ([]string, error) {
	for name := range values {
		if def.Flag(name) == nil {
			return nil, fmt.Errorf("trainer %q does not define a flag named %q", def.Type, name)
		}
	}

	args := make([]string, 0, 2*len(def.Flags))
	for _, flag := range def.Flags {
		val, provided := values[flag.Name]
		if !provided {
			if flag.Default == nil {
				if flag.Required {
					return nil, fmt.Errorf("missing required flag %q for trainer %q", flag.Name, def.Type)
				}
				continue
			}
			val = *flag.Default
		}

		rendered, err := FormatValue(flag.Kind, val)
		if err != nil {
			return nil, fmt.Errorf("flag %q: %w", flag.Name, err)
		}
		args = append(args, "--"+flag.Name, rendered)
	}
	return args, nil
}

// FormatValue renders a single evaluated value as the literal the
// external trainer's argument parser expects for the given kind.
func FormatValue(kind config.FlagKind, val cty.Value) (string, error) {
	if val.IsNull() {
		return "", fmt.Errorf("value must not be null")
	}

	switch kind {
	case config.KindString:
		return val.AsString(), nil

	case config.KindBool:
		if val.True() {
			return "True", nil
		}
		return "False", nil

	case config.KindInt:
		f := val.AsBigFloat()
		if !f.IsInt() {
			return "", fmt.Errorf("expected an integer, got %s", f.Text('f', -1))
		}
		return f.Text('f', 0), nil

	case config.KindFloat:
		return formatFloat(val.AsBigFloat()), nil

	case config.KindStringList:
		var parts []string
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			if elem.IsNull() {
				return "", fmt.Errorf("list elements must not be null")
			}
			parts = append(parts, elem.AsString())
		}
		return strings.Join(parts, ","), nil

	default:
		return "", fmt.Errorf("unhandled flag kind %d", kind)
	}
}

// formatFloat renders a number so that a whole value still reads as a
// float literal: 0 becomes "0.0", 0.0001 stays "0.0001".
func formatFloat(f *big.Float) string {
	if f.IsInt() {
		return f.Text('f', 1)
	}
	v, _ := f.Float64()
	return strconv.FormatFloat(v, 'f', -1, 64)
}
