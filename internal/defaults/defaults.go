// Package defaults loads the optional launcher defaults file. The file is
// TOML rather than HCL because it configures the tool itself, not a
// launch plan: interpreter selection, logging, the notify webhook, and
// named environment profiles that stand in for cluster `module load`
// lines on machines without an environment-modules system.
package defaults

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults holds launcher-level settings shared by every run.
type Defaults struct {
	// Python is the interpreter used to launch trainer entrypoints.
	Python string `toml:"python"`
	// LogFormat and LogLevel set the launcher's own logging; flags win
	// over these.
	LogFormat string `toml:"log_format"`
	LogLevel  string `toml:"log_level"`
	// NotifyURL, when set, receives a JSON POST after each run finishes.
	NotifyURL string `toml:"notify_url"`
	// Profile names the environment profile applied to every run.
	Profile string `toml:"profile"`
	// Profiles maps profile names to environment exports.
	Profiles map[string]map[string]string `toml:"profiles"`
}

// Load reads and validates a defaults file. An empty path yields the
// zero-value defaults; a missing file at a non-empty path is an error so
// a typoed -defaults flag does not silently launch with no defaults.
func Load(path string) (*Defaults, error) {
	var d Defaults
	if strings.TrimSpace(path) == "" {
		d.normalize()
		return &d, nil
	}

	meta, err := toml.DecodeFile(path, &d)
	if err != nil {
		return nil, fmt.Errorf("failed to decode defaults file %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown keys in defaults file %s: %v", path, undecoded)
	}

	d.normalize()
	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("invalid defaults file %s: %w", path, err)
	}
	return &d, nil
}

// LoadIfPresent behaves like Load but treats a missing file as the
// zero-value defaults. It is used for the implicit well-known path.
func LoadIfPresent(path string) (*Defaults, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Load("")
	}
	return Load(path)
}

// ActiveProfile resolves the configured profile's exports, or nil when no
// profile is selected.
func (d *Defaults) ActiveProfile() (map[string]string, error) {
	if d.Profile == "" {
		return nil, nil
	}
	exports, ok := d.Profiles[d.Profile]
	if !ok {
		return nil, fmt.Errorf("defaults select profile %q but do not define it", d.Profile)
	}
	return exports, nil
}

func (d *Defaults) normalize() {
	if d.Python == "" {
		d.Python = "python"
	}
	d.LogFormat = strings.ToLower(strings.TrimSpace(d.LogFormat))
	d.LogLevel = strings.ToLower(strings.TrimSpace(d.LogLevel))
}

func (d *Defaults) validate() error {
	switch d.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be 'text' or 'json', got %q", d.LogFormat)
	}
	switch d.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be 'debug', 'info', 'warn', or 'error', got %q", d.LogLevel)
	}
	if _, err := d.ActiveProfile(); err != nil {
		return err
	}
	return nil
}
