// Package node defines the vertices of the launch graph: one node per
// training run, with atomically managed scheduling state.
package node

import (
	"sync"
	"sync/atomic"

	"github.com/lchen64/pid-diffusion/internal/config"
)

// Node is a single vertex in the launch graph, representing one training
// run to be executed.
type Node struct {
	// Run holds the configuration for this training run.
	Run *config.Run

	// mu guards the outcome fields, which workers write while the status
	// server reads them from its own goroutine.
	mu       sync.Mutex
	err      error
	exitCode int

	// depCount is an atomic counter for unmet dependencies, used by the
	// executor to decide when a node becomes ready.
	depCount atomic.Int32
	// state is the node's current execution state, managed atomically.
	state atomic.Int32
	// skipOnce ensures a node is marked as skipped exactly once.
	skipOnce sync.Once
}

// New creates a node for the given run in the Pending state.
func New(run *config.Run) *Node {
	return &Node{Run: run}
}

// ID returns the canonical identifier of the node within its graph.
func (n *Node) ID() string {
	return n.Run.ID()
}

// State represents the execution state of a node in the graph.
type State int32

const (
	// Pending indicates the node is waiting for its dependencies.
	Pending State = iota
	// Running indicates the node's trainer process is executing.
	Running
	// Done indicates the trainer finished with a zero exit status.
	Done
	// Failed indicates the trainer failed to launch or exited non-zero.
	Failed
	// Skipped indicates the node never ran because a dependency failed.
	Skipped
)

// String returns the lowercase name of the state for logs and the status
// endpoint.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "pending"
	}
}

// SetDepCount initializes the dependency counter.
func (n *Node) SetDepCount(count int32) {
	n.depCount.Store(count)
}

// DecrementDepCount atomically decrements the dependency counter and
// returns the new value.
func (n *Node) DecrementDepCount() int32 {
	return n.depCount.Add(-1)
}

// SetState atomically sets the node's execution state.
func (n *Node) SetState(s State) {
	n.state.Store(int32(s))
}

// GetState atomically retrieves the node's execution state.
func (n *Node) GetState() State {
	return State(n.state.Load())
}

// SetOutcome records the result of launching this node's run.
func (n *Node) SetOutcome(exitCode int, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.exitCode = exitCode
	n.err = err
}

// ExitCode returns the trainer process's exit status, valid once the
// node has left the Running state.
func (n *Node) ExitCode() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.exitCode
}

// Err returns the error that failed or skipped this node, or nil.
func (n *Node) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// Skip marks the node as skipped exactly once, recording the reason and
// releasing its slot in the given wait group. Calling Skip on an already
// skipped node is a no-op.
func (n *Node) Skip(reason error, wg *sync.WaitGroup) {
	n.skipOnce.Do(func() {
		n.mu.Lock()
		n.err = reason
		n.mu.Unlock()
		n.SetState(Skipped)
		wg.Done()
	})
}
