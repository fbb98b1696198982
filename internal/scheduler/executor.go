// Package scheduler drains the instance dependency graph with a
// fixed-size worker pool. An instance is dispatched only when every
// dependency reached a terminal state successfully; a failed or skipped
// dependency skips the whole downstream cone instead.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/vk/gridci/internal/artifact"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/dag"
	"github.com/vk/gridci/internal/runner"
)

// Executor owns one run's dispatch loop.
type Executor struct {
	graph   *dag.Graph
	store   *artifact.Store
	runner  runner.Runner
	workers int
	wg      sync.WaitGroup
}

// New creates an executor. A worker count below one is raised to one.
func New(graph *dag.Graph, store *artifact.Store, r runner.Runner, workers int) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		graph:   graph,
		store:   store,
		runner:  r,
		workers: workers,
	}
}

// Run executes every node to a terminal outcome and returns once the
// graph is drained. Job failures are recorded on the nodes, not returned;
// the verdict step judges them afterwards. External cancellation marks
// everything still pending or running as skipped.
func (e *Executor) Run(ctx context.Context) {
	logger := ctxlog.FromContext(ctx)

	total := len(e.graph.Nodes)
	if total == 0 {
		logger.Warn("No instances to execute.")
		return
	}

	readyChan := make(chan *dag.Node, total)
	e.wg.Add(total)

	// Ineligible templates skip uniformly before dispatch begins, and the
	// skip cascades so their dependents never wait.
	for _, node := range e.graph.Nodes {
		if !node.Instance.Eligible {
			e.skipNode(ctx, node, fmt.Errorf("trigger gate not satisfied for job %q", node.Instance.Template.Name))
		}
	}

	rootCount := 0
	for _, node := range e.graph.Nodes {
		if node.DepCount() == 0 && node.Outcome() == dag.Pending {
			readyChan <- node
			rootCount++
		}
	}
	logger.Debug("Found all root instances.", "count", rootCount)

	logger.Debug("Starting worker pool.", "workers", e.workers)
	for i := 0; i < e.workers; i++ {
		go e.worker(ctx, readyChan, i)
	}

	e.wg.Wait()
	close(readyChan)
	logger.Debug("All instances reached a terminal state.")
}

// skipNode marks a node skipped exactly once and cascades the skip to its
// dependents. Safe to call from any goroutine: a node reachable here can
// never be concurrently dispatched, because dispatch requires every
// dependency to have succeeded.
func (e *Executor) skipNode(ctx context.Context, node *dag.Node, cause error) {
	if !node.MarkSkipped(cause) {
		return
	}
	ctxlog.FromContext(ctx).Warn("Skipping instance.", "instance", node.ID(), "cause", cause)
	e.wg.Done()
	for _, dependent := range node.Dependents {
		e.skipNode(ctx, dependent, fmt.Errorf("upstream %q did not succeed", node.ID()))
	}
}
