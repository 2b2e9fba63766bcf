// Package launch turns a fully resolved launch plan into an external
// trainer process: it spawns the interpreter, streams the trainer's
// output, and reports the child's exit status unchanged. Nothing in this
// package retries, interprets, or recovers a trainer failure.
package launch

import (
	"fmt"
	"sort"
	"strings"
)

// Plan is a fully resolved trainer invocation: everything needed to spawn
// the process, with no expressions or defaults left to apply.
type Plan struct {
	Trainer string
	Run     string
	// Python is the interpreter binary, Entrypoint the script it runs.
	Python     string
	Entrypoint string
	// Argv holds the trainer flags only, already ordered and rendered.
	Argv []string
	// Env is the complete environment for the child process.
	Env []string
	// Exports are the env entries this launch added over the inherited
	// environment, kept separately for rendering and snapshots.
	Exports map[string]string
	// LogDir is the resolved OPENAI_LOGDIR for this run.
	LogDir string
	// TotalSteps drives the progress display; 0 means unknown.
	TotalSteps int
}

// CommandLine returns the full argument vector of the child process,
// interpreter first.
func (p *Plan) CommandLine() []string {
	cmdline := make([]string, 0, len(p.Argv)+2)
	cmdline = append(cmdline, p.Python, p.Entrypoint)
	cmdline = append(cmdline, p.Argv...)
	return cmdline
}

// Render formats the launch as a copy-pasteable shell line: exported
// variables first, then the command. Used by dry-run output.
func (p *Plan) Render() string {
	var b strings.Builder
	for _, k := range sortedKeys(p.Exports) {
		b.WriteString(fmt.Sprintf("%s=%s ", k, shellQuote(p.Exports[k])))
	}
	parts := make([]string, 0, len(p.Argv)+2)
	for _, arg := range p.CommandLine() {
		parts = append(parts, shellQuote(arg))
	}
	b.WriteString(strings.Join(parts, " "))
	return b.String()
}

// ChildExitError reports that a trainer process exited with a non-zero
// status. The launcher's own exit code mirrors the child's.
type ChildExitError struct {
	Run  string
	Code int
}

// Error implements the error interface for ChildExitError.
func (e *ChildExitError) Error() string {
	return fmt.Sprintf("run %q exited with status %d", e.Run, e.Code)
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if strings.ContainsAny(s, " \t\n\"'\\$&|;<>()*?[]{}~#") {
		return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
