package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_PanicRecovery(t *testing.T) {
	t.Parallel()

	// An HCL file with a syntax error is guaranteed to panic during the
	// loading phase inside app.NewApp().
	invalidHCL := `
		run "cm_train" "broken" {
			arguments {
		// Missing closing braces here
	`
	tempDir := t.TempDir()
	planPath := filepath.Join(tempDir, "plan.hcl")
	require.NoError(t, os.WriteFile(planPath, []byte(invalidHCL), 0o600))

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	runErr := run(out, errOut, []string{"-trainers-path", tempDir, planPath})

	require.Error(t, runErr, "run() should have returned an error after recovering from a panic")
	require.Contains(t, runErr.Error(), "application startup panicked")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" flag makes cli.Parse report shouldExit, which run treats
	// as a clean no-op.
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	err := run(out, errOut, []string{"-h"})

	require.NoError(t, err)
	require.Contains(t, out.String(), "Usage:")
}

func TestRun_NoArgumentsPrintsUsage(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	err := run(out, errOut, nil)

	require.NoError(t, err)
	require.Contains(t, out.String(), "PLAN_PATH")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	err := run(out, errOut, []string{"--this-is-not-a-valid-flag"})

	require.Error(t, err)
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}
