// Package environ assembles the environment block handed to an external
// trainer process. Layers apply in a fixed order so the result is
// deterministic: inherited process environment, then a named profile from
// the defaults file, then the run's env block, then command-line
// overrides.
package environ

import (
	"fmt"
	"sort"
	"strings"
)

// LogDirVar is the environment variable the trainers read their output
// directory from.
const LogDirVar = "OPENAI_LOGDIR"

// DevicesVar selects which accelerator devices the trainer may use.
const DevicesVar = "devices"

// Overrides carries command-line level overrides that win over every
// configured layer.
type Overrides struct {
	LogDir  string
	Devices string
}

// Build layers the environment for one run and returns the full
// `KEY=value` slice for exec along with the exports this launch applied
// on top of the inherited environment (for snapshots and logs). If no
// layer sets LogDirVar, it defaults to ./experiment/<run name>; an
// inherited LogDirVar is carried into the exports so the resolved log
// directory is always visible there.
func Build(base []string, profile, runEnv map[string]string, ov Overrides, runName string) ([]string, map[string]string) {
	env := make(map[string]string, len(base)+len(profile)+len(runEnv))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}

	exports := make(map[string]string, len(profile)+len(runEnv)+2)
	apply := func(layer map[string]string) {
		for k, v := range layer {
			env[k] = v
			exports[k] = v
		}
	}

	apply(profile)
	apply(runEnv)

	if ov.LogDir != "" {
		apply(map[string]string{LogDirVar: ov.LogDir})
	}
	if ov.Devices != "" {
		apply(map[string]string{DevicesVar: ov.Devices})
	}

	switch {
	case env[LogDirVar] == "":
		apply(map[string]string{LogDirVar: "./experiment/" + runName})
	case exports[LogDirVar] == "":
		// Inherited from the launcher's own environment (the original
		// `export OPENAI_LOGDIR=...` workflow); it is still this run's
		// log directory, so surface it in the exports.
		exports[LogDirVar] = env[LogDirVar]
	}

	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, fmt.Sprintf("%s=%s", k, env[k]))
	}
	return full, exports
}

// LogDir extracts the resolved log directory from a built environment.
func LogDir(exports map[string]string) string {
	return exports[LogDirVar]
}
