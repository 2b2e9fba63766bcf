package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/dag"
	"github.com/lchen64/pid-diffusion/internal/launch"
	"github.com/lchen64/pid-diffusion/internal/node"
)

// fakeRunner records launch order and fails runs listed in exitCodes.
type fakeRunner struct {
	mu        sync.Mutex
	launched  []string
	exitCodes map[string]int
}

func (f *fakeRunner) Launch(_ context.Context, run *config.Run) (int, error) {
	f.mu.Lock()
	f.launched = append(f.launched, run.Name)
	f.mu.Unlock()

	if code, ok := f.exitCodes[run.Name]; ok && code != 0 {
		return code, &launch.ChildExitError{Run: run.Name, Code: code}
	}
	return 0, nil
}

func (f *fakeRunner) order() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.launched...)
}

func planOf(runs ...*config.Run) *config.Plan {
	return &config.Plan{Runs: runs}
}

func run(name string, deps ...string) *config.Run {
	return &config.Run{TrainerType: "cm_train", Name: name, DependsOn: deps}
}

func buildGraph(t *testing.T, plan *config.Plan) *dag.Graph {
	t.Helper()
	graph, err := dag.Build(context.Background(), plan)
	require.NoError(t, err)
	return graph
}

func TestExecutor_SingleRun(t *testing.T) {
	t.Parallel()

	plan := planOf(run("pid_imagenet"))
	runner := &fakeRunner{}
	exec := New(buildGraph(t, plan), plan, runner, 1)

	require.NoError(t, exec.Run(context.Background()))
	require.Equal(t, []string{"pid_imagenet"}, runner.order())
}

func TestExecutor_DependencyOrdering(t *testing.T) {
	t.Parallel()

	plan := planOf(
		run("teacher"),
		run("student", "teacher"),
		run("eval", "student"),
	)
	runner := &fakeRunner{}
	exec := New(buildGraph(t, plan), plan, runner, 2)

	require.NoError(t, exec.Run(context.Background()))
	require.Equal(t, []string{"teacher", "student", "eval"}, runner.order())
}

func TestExecutor_FailureSkipsDependents(t *testing.T) {
	t.Parallel()

	plan := planOf(
		run("teacher"),
		run("student", "teacher"),
		run("eval", "student"),
	)
	runner := &fakeRunner{exitCodes: map[string]int{"teacher": 3}}
	graph := buildGraph(t, plan)
	exec := New(graph, plan, runner, 1)

	err := exec.Run(context.Background())
	require.Error(t, err)

	var childErr *launch.ChildExitError
	require.ErrorAs(t, err, &childErr)
	require.Equal(t, 3, childErr.Code)

	require.Equal(t, []string{"teacher"}, runner.order())
	require.Equal(t, node.Failed, graph.Nodes["cm_train.teacher"].GetState())
	require.Equal(t, node.Skipped, graph.Nodes["cm_train.student"].GetState())
	require.Equal(t, node.Skipped, graph.Nodes["cm_train.eval"].GetState())
}

func TestExecutor_IndependentRunsAllLaunch(t *testing.T) {
	t.Parallel()

	plan := planOf(run("a"), run("b"), run("c"))
	runner := &fakeRunner{}
	exec := New(buildGraph(t, plan), plan, runner, 3)

	require.NoError(t, exec.Run(context.Background()))
	require.ElementsMatch(t, []string{"a", "b", "c"}, runner.order())
}

func TestExecutor_ExitCodeRecordedOnNode(t *testing.T) {
	t.Parallel()

	plan := planOf(run("a"))
	runner := &fakeRunner{exitCodes: map[string]int{"a": 137}}
	graph := buildGraph(t, plan)
	exec := New(graph, plan, runner, 1)

	err := exec.Run(context.Background())
	require.Error(t, err)
	require.Equal(t, 137, graph.Nodes["cm_train.a"].ExitCode())
}

func TestExecutor_FailureSkipsQueuedBranch(t *testing.T) {
	t.Parallel()

	// Two independent roots plus a dependent of the second. With one
	// worker, "a" fails and cancels the context while "b" is still
	// queued; "b" is skipped for cancellation and must drag "c" along
	// with it or Run never returns.
	plan := planOf(
		run("a"),
		run("b"),
		run("c", "b"),
	)
	runner := &fakeRunner{exitCodes: map[string]int{"a": 1}}
	graph := buildGraph(t, plan)
	exec := New(graph, plan, runner, 1)

	done := make(chan error, 1)
	go func() { done <- exec.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Executor.Run did not return after a failure with queued work")
	}

	require.Equal(t, []string{"a"}, runner.order())
	require.Equal(t, node.Failed, graph.Nodes["cm_train.a"].GetState())
	require.Equal(t, node.Skipped, graph.Nodes["cm_train.b"].GetState())
	require.Equal(t, node.Skipped, graph.Nodes["cm_train.c"].GetState())
}

func TestExecutor_CancelledContextSkipsAll(t *testing.T) {
	t.Parallel()

	plan := planOf(run("a"), run("b"))
	runner := &fakeRunner{}
	graph := buildGraph(t, plan)
	exec := New(graph, plan, runner, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Run(ctx)
	require.Error(t, err)
	require.True(t, IsCancellation(err))
	require.Empty(t, runner.order())
}
