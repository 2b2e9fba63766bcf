package dag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lchen64/pid-diffusion/internal/config"
)

func run(name string, deps ...string) *config.Run {
	return &config.Run{TrainerType: "cm_train", Name: name, DependsOn: deps}
}

func TestBuild_LinksDependencies(t *testing.T) {
	t.Parallel()

	plan := &config.Plan{Runs: []*config.Run{
		run("teacher"),
		run("student", "teacher"),
	}}

	graph, err := Build(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 2)

	deps, err := graph.Dependencies("cm_train.student")
	require.NoError(t, err)
	require.Len(t, deps, 1)
	require.Equal(t, "cm_train.teacher", deps[0].ID())

	dependents, err := graph.Dependents("cm_train.teacher")
	require.NoError(t, err)
	require.Len(t, dependents, 1)
	require.Equal(t, "cm_train.student", dependents[0].ID())
}

func TestBuild_RootsInPlanOrder(t *testing.T) {
	t.Parallel()

	plan := &config.Plan{Runs: []*config.Run{
		run("c"),
		run("a"),
		run("b", "a"),
	}}

	graph, err := Build(context.Background(), plan)
	require.NoError(t, err)

	roots := graph.Roots(plan)
	require.Len(t, roots, 2)
	require.Equal(t, "cm_train.c", roots[0].ID())
	require.Equal(t, "cm_train.a", roots[1].ID())
}

func TestBuild_DuplicateRun(t *testing.T) {
	t.Parallel()

	plan := &config.Plan{Runs: []*config.Run{run("a"), run("a")}}

	_, err := Build(context.Background(), plan)
	require.Error(t, err)
	require.Contains(t, err.Error(), `duplicate run "cm_train.a"`)
}

func TestBuild_UnknownDependency(t *testing.T) {
	t.Parallel()

	plan := &config.Plan{Runs: []*config.Run{run("a", "ghost")}}

	_, err := Build(context.Background(), plan)
	require.Error(t, err)
	require.Contains(t, err.Error(), `depends on unknown run "ghost"`)
}

func TestBuild_SelfDependency(t *testing.T) {
	t.Parallel()

	plan := &config.Plan{Runs: []*config.Run{run("a", "a")}}

	_, err := Build(context.Background(), plan)
	require.Error(t, err)
	require.Contains(t, err.Error(), "depends on itself")
}

func TestBuild_CycleDetected(t *testing.T) {
	t.Parallel()

	plan := &config.Plan{Runs: []*config.Run{
		run("a", "c"),
		run("b", "a"),
		run("c", "b"),
	}}

	_, err := Build(context.Background(), plan)
	require.Error(t, err)
	require.Contains(t, err.Error(), "dependency cycle detected")
}

func TestBuild_DepCounts(t *testing.T) {
	t.Parallel()

	plan := &config.Plan{Runs: []*config.Run{
		run("a"),
		run("b"),
		run("c", "a", "b"),
	}}

	graph, err := Build(context.Background(), plan)
	require.NoError(t, err)

	deps, err := graph.Dependencies("cm_train.c")
	require.NoError(t, err)
	require.Len(t, deps, 2)

	_, err = graph.Dependencies("cm_train.missing")
	require.Error(t, err)
}
