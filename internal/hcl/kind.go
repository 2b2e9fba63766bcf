// This file contains the logic for parsing flag type keywords (e.g.
// `string`, `float`, `list(string)`) into their config.FlagKind values.

package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/ctxlog"
)

// flagKindFromExpr converts a flag type expression into its FlagKind.
// The keyword vocabulary mirrors Python argparse (int and float are
// distinct kinds) rather than the plain HCL type system.
func flagKindFromExpr(ctx context.Context, expr hcl.Expression) (config.FlagKind, error) {
	logger := ctxlog.FromContext(ctx)

	switch v := expr.(type) {
	case *hclsyntax.FunctionCallExpr:
		logger.Debug("Parsing flag type as a constructor call.", "call", v.Name)
		if v.Name != "list" {
			return 0, fmt.Errorf("unknown type constructor %q (only list(string) is supported)", v.Name)
		}
		if len(v.Args) != 1 {
			return 0, fmt.Errorf("list() requires exactly one argument, got %d", len(v.Args))
		}
		inner, err := flagKindFromExpr(ctx, v.Args[0])
		if err != nil {
			return 0, err
		}
		if inner != config.KindString {
			return 0, fmt.Errorf("only list(string) flags are supported, got list(%s)", inner)
		}
		return config.KindStringList, nil

	case *hclsyntax.ScopeTraversalExpr:
		if len(v.Traversal) != 1 {
			return 0, fmt.Errorf("invalid type keyword: traversal path is not a single identifier")
		}
		keyword := v.Traversal.RootName()
		logger.Debug("Parsing flag type as a keyword.", "keyword", keyword)
		switch keyword {
		case "string":
			return config.KindString, nil
		case "bool":
			return config.KindBool, nil
		case "int":
			return config.KindInt, nil
		case "float":
			return config.KindFloat, nil
		default:
			return 0, fmt.Errorf("unknown flag type %q", keyword)
		}

	default:
		return 0, fmt.Errorf("unsupported expression for flag type: %T", v)
	}
}
