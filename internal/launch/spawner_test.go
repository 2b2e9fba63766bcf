package launch

import (
	"bytes"
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func shellPlan(script string) *Plan {
	return &Plan{
		Trainer:    "cm_train",
		Run:        "test",
		Python:     "/bin/sh",
		Entrypoint: "-c",
		Argv:       []string{script},
		Env:        []string{"PATH=/bin:/usr/bin"},
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test requires a POSIX shell")
	}
}

func TestExecSpawner_ZeroExit(t *testing.T) {
	t.Parallel()
	requireShell(t)

	var stdout, stderr bytes.Buffer
	s := &ExecSpawner{}
	code, err := s.Spawn(context.Background(), shellPlan("echo hello"), &stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "hello\n", stdout.String())
}

func TestExecSpawner_NonZeroExitIsNotAnError(t *testing.T) {
	t.Parallel()
	requireShell(t)

	var stdout, stderr bytes.Buffer
	s := &ExecSpawner{}
	code, err := s.Spawn(context.Background(), shellPlan("exit 3"), &stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, 3, code)
}

func TestExecSpawner_ChildSeesEnvironment(t *testing.T) {
	t.Parallel()
	requireShell(t)

	plan := shellPlan(`echo "$OPENAI_LOGDIR"`)
	plan.Env = append(plan.Env, "OPENAI_LOGDIR=./experiment/pid_imagenet")

	var stdout, stderr bytes.Buffer
	s := &ExecSpawner{}
	code, err := s.Spawn(context.Background(), plan, &stdout, &stderr)
	require.NoError(t, err)
	require.Equal(t, 0, code)
	require.Equal(t, "./experiment/pid_imagenet\n", stdout.String())
}

func TestExecSpawner_SpawnFailure(t *testing.T) {
	t.Parallel()

	plan := &Plan{
		Trainer:    "cm_train",
		Run:        "test",
		Python:     "/nonexistent/interpreter",
		Entrypoint: "cm_train.py",
	}

	var stdout, stderr bytes.Buffer
	s := &ExecSpawner{}
	code, err := s.Spawn(context.Background(), plan, &stdout, &stderr)
	require.Error(t, err)
	require.Equal(t, -1, code)
	require.Contains(t, err.Error(), "failed to launch")
}

func TestExecSpawner_CancellationSurfacesContextError(t *testing.T) {
	t.Parallel()
	requireShell(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var stdout, stderr bytes.Buffer
	s := &ExecSpawner{}
	_, err := s.Spawn(ctx, shellPlan("sleep 30"), &stdout, &stderr)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
