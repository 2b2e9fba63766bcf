package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// PlanPath points at the launch plan: a .hcl file or a directory of
	// them.
	PlanPath string
	// TrainersPath points at the trainer manifest directory.
	TrainersPath string
	// DefaultsPath points at an explicit TOML defaults file. Empty means
	// use ./pidlaunch.toml when it exists.
	DefaultsPath string

	LogFormat string
	LogLevel  string

	// Workers bounds how many runs execute concurrently.
	Workers int
	// DryRun prints resolved command lines instead of launching.
	DryRun bool
	// StatusPort enables the HTTP status server when > 0.
	StatusPort int

	// LogDir, Devices, and Python are command-line overrides that win
	// over the plan and the defaults file.
	LogDir  string
	Devices string
	Python  string
}

// NewConfig validates a Config and returns it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.PlanPath == "" {
		return nil, errors.New("PlanPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
