// Package hcl implements the config.Loader and config.Converter
// interfaces for HCL configuration: it discovers and parses .hcl files,
// decodes them against the schema package, and translates the result into
// the format-agnostic config model.
package hcl
