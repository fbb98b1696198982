// Package dag builds and holds the instance dependency graph. The graph
// is constructed once, before dispatch, and never mutated afterwards;
// only each node's outcome transitions, under the scheduler's
// single-writer discipline.
package dag

import (
	"sync"
	"sync/atomic"

	"github.com/vk/gridci/internal/matrix"
)

// Outcome is the lifecycle state of a job instance.
type Outcome int32

const (
	Pending Outcome = iota
	Running
	Succeeded
	Failed
	Skipped
)

// String returns the lowercase name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	}
	return "unknown"
}

// Terminal reports whether o is a final state.
func (o Outcome) Terminal() bool {
	return o == Succeeded || o == Failed || o == Skipped
}

// Node wraps one job instance with its graph links and mutable outcome.
type Node struct {
	Instance   *matrix.Instance
	Deps       map[string]*Node
	Dependents map[string]*Node

	// Err records why a node failed or was skipped.
	Err error

	// state holds the Outcome; depCount counts unmet dependencies and
	// gates admission to the ready queue.
	state    atomic.Int32
	depCount atomic.Int32
	skipOnce sync.Once
}

// ID returns the node's instance identity.
func (n *Node) ID() string {
	return n.Instance.ID
}

// Outcome returns the node's current state.
func (n *Node) Outcome() Outcome {
	return Outcome(n.state.Load())
}

// SetOutcome transitions the node's state.
func (n *Node) SetOutcome(o Outcome) {
	n.state.Store(int32(o))
}

// SetInitialCounters seeds the unmet-dependency counter from the linked
// edges. Called once after linking, before dispatch.
func (n *Node) SetInitialCounters() {
	n.depCount.Store(int32(len(n.Deps)))
}

// DepCount returns the number of still-unmet dependencies.
func (n *Node) DepCount() int32 {
	return n.depCount.Load()
}

// DecrementDepCount records one satisfied dependency and returns the
// remaining count.
func (n *Node) DecrementDepCount() int32 {
	return n.depCount.Add(-1)
}

// MarkSkipped transitions the node to Skipped exactly once, recording the
// cause. It returns true on the transition and false for every later call.
func (n *Node) MarkSkipped(cause error) bool {
	first := false
	n.skipOnce.Do(func() {
		n.state.Store(int32(Skipped))
		n.Err = cause
		first = true
	})
	return first
}

// Graph is the immutable instance dependency graph.
type Graph struct {
	Nodes map[string]*Node
}
