// Package dag builds and validates the dependency graph of a launch
// plan. Runs are vertices; a depends_on entry creates a directed edge
// from the prerequisite run to its dependent.
package dag

import (
	"context"
	"fmt"

	"github.com/lchen64/pid-diffusion/internal/config"
	"github.com/lchen64/pid-diffusion/internal/ctxlog"
	"github.com/lchen64/pid-diffusion/internal/node"
)

// Graph is the validated launch graph. Structure is immutable after
// Build; only node state changes during execution.
type Graph struct {
	// Nodes is keyed by run ID.
	Nodes map[string]*node.Node

	// byName indexes nodes by bare instance name, the vocabulary
	// depends_on uses.
	byName     map[string]*node.Node
	deps       map[string][]string
	dependents map[string][]string
}

// Build constructs a complete, validated dependency graph from a plan.
func Build(ctx context.Context, plan *config.Plan) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: starting graph construction.")

	graph := &Graph{
		Nodes:      make(map[string]*node.Node),
		byName:     make(map[string]*node.Node),
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}

	for _, run := range plan.Runs {
		n := node.New(run)
		if _, exists := graph.Nodes[n.ID()]; exists {
			return nil, fmt.Errorf("duplicate run %q in plan", n.ID())
		}
		graph.Nodes[n.ID()] = n
		graph.byName[run.Name] = n
	}
	logger.Debug("Build: node creation complete.", "node_count", len(graph.Nodes))

	for _, run := range plan.Runs {
		n := graph.byName[run.Name]
		for _, depName := range run.DependsOn {
			dep, ok := graph.byName[depName]
			if !ok {
				return nil, fmt.Errorf("run %q depends on unknown run %q", run.Name, depName)
			}
			if dep == n {
				return nil, fmt.Errorf("run %q depends on itself", run.Name)
			}
			graph.deps[n.ID()] = append(graph.deps[n.ID()], dep.ID())
			graph.dependents[dep.ID()] = append(graph.dependents[dep.ID()], n.ID())
		}
	}
	logger.Debug("Build: node linking complete.")

	for id, n := range graph.Nodes {
		n.SetDepCount(int32(len(graph.deps[id])))
	}

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("error validating dependency graph: %w", err)
	}
	logger.Debug("Build: graph construction successful.")
	return graph, nil
}

// Dependencies returns the nodes the given node depends on.
func (g *Graph) Dependencies(id string) ([]*node.Node, error) {
	if _, ok := g.Nodes[id]; !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return g.collect(g.deps[id]), nil
}

// Dependents returns the nodes that depend on the given node.
func (g *Graph) Dependents(id string) ([]*node.Node, error) {
	if _, ok := g.Nodes[id]; !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return g.collect(g.dependents[id]), nil
}

// Roots returns the nodes with no dependencies, in plan order.
func (g *Graph) Roots(plan *config.Plan) []*node.Node {
	var roots []*node.Node
	for _, run := range plan.Runs {
		n := g.byName[run.Name]
		if len(g.deps[n.ID()]) == 0 {
			roots = append(roots, n)
		}
	}
	return roots
}

func (g *Graph) collect(ids []string) []*node.Node {
	nodes := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, g.Nodes[id])
	}
	return nodes
}

// detectCycles runs a depth-first search with the classic three-color
// marking: permanent for fully visited nodes, temporary for nodes on the
// current recursion stack.
func (g *Graph) detectCycles() error {
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(id string) error
	visit = func(id string) error {
		if permanent[id] {
			return nil
		}
		if temporary[id] {
			return fmt.Errorf("dependency cycle detected involving %q", id)
		}
		temporary[id] = true
		for _, depID := range g.deps[id] {
			if err := visit(depID); err != nil {
				return err
			}
		}
		delete(temporary, id)
		permanent[id] = true
		return nil
	}

	for id := range g.Nodes {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
