package config

import "github.com/zclconf/go-cty/cty"

// FlagKind describes how a flag value is typed and rendered. The
// vocabulary mirrors Python argparse rather than the HCL type system: the
// external trainers distinguish int flags from float flags, and that
// distinction changes the rendered literal ("0" vs "0.0").
type FlagKind int

const (
	// KindString renders the value verbatim.
	KindString FlagKind = iota
	// KindBool renders Python boolean literals, "True" or "False".
	KindBool
	// KindInt requires an integral number and renders it without a
	// decimal point.
	KindInt
	// KindFloat renders a number with at least one decimal digit, so a
	// whole value still reads as a float ("0.0").
	KindFloat
	// KindStringList renders a list of strings joined by commas.
	KindStringList
)

// CtyType returns the cty type that values of this kind are converted to
// during evaluation.
func (k FlagKind) CtyType() cty.Type {
	switch k {
	case KindBool:
		return cty.Bool
	case KindInt, KindFloat:
		return cty.Number
	case KindStringList:
		return cty.List(cty.String)
	default:
		return cty.String
	}
}

// String returns the manifest keyword for the kind.
func (k FlagKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStringList:
		return "list(string)"
	default:
		return "string"
	}
}
