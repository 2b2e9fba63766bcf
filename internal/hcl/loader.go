package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/ctxlog"
	"github.com/lchen64/pid-diffusion/internal/fsutil"
	"github.com/lchen64/pid-diffusion/internal/schema"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every .hcl file under the given paths, decodes trainer
// manifests and run blocks, and translates them into the unified model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, config.Converter, error) {
	logger := ctxlog.FromContext(ctx)

	model := &config.Model{
		Trainers: make(map[string]*config.TrainerDefinition),
		Plan:     &config.Plan{},
	}

	for _, path := range paths {
		files, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to discover config files under %q: %w", path, err)
		}
		logger.Debug("Discovered HCL files.", "path", path, "count", len(files))

		for _, file := range files {
			if err := l.loadFile(ctx, file, model); err != nil {
				return nil, nil, err
			}
		}
	}

	logger.Debug("HCL loading complete.",
		"trainers", len(model.Trainers), "runs", len(model.Plan.Runs))
	return model, NewConverter(), nil
}

// loadFile parses and translates a single HCL file into the model.
func (l *Loader) loadFile(ctx context.Context, path string, model *config.Model) error {
	hclFile, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	var fileCfg schema.FileConfig
	if diags := gohcl.DecodeBody(hclFile.Body, nil, &fileCfg); diags.HasErrors() {
		return fmt.Errorf("failed to decode %s: %w", path, diags)
	}

	for _, t := range fileCfg.Trainers {
		def, err := l.translateTrainerDefinition(ctx, t)
		if err != nil {
			return fmt.Errorf("in %s: %w", path, err)
		}
		if _, exists := model.Trainers[def.Type]; exists {
			return fmt.Errorf("in %s: duplicate trainer type %q", path, def.Type)
		}
		model.Trainers[def.Type] = def
	}

	for _, r := range fileCfg.Runs {
		run, err := l.translateRun(r)
		if err != nil {
			return fmt.Errorf("in %s: %w", path, err)
		}
		model.Plan.Runs = append(model.Plan.Runs, run)
	}

	return nil
}

// extractBodyAttributes flattens an attribute-only block body into a map
// of named expressions.
func extractBodyAttributes(body hcl.Body) (map[string]hcl.Expression, error) {
	if body == nil {
		return map[string]hcl.Expression{}, nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	exprs := make(map[string]hcl.Expression, len(attrs))
	for name, attr := range attrs {
		exprs[name] = attr.Expr
	}
	return exprs, nil
}
