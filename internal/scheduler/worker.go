package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/dag"
	"github.com/vk/gridci/internal/runner"
)

// errRunnerFailure marks a clean failure reported by the runner, as
// opposed to the runner itself breaking.
var errRunnerFailure = errors.New("runner reported failure")

// worker is the processing loop for one concurrent worker.
func (e *Executor) worker(ctx context.Context, readyChan chan *dag.Node, workerID int) {
	logger := ctxlog.FromContext(ctx).With("worker", workerID)
	logger.Debug("Worker started.")

	for node := range readyChan {
		if ctx.Err() != nil {
			e.skipNode(ctx, node, fmt.Errorf("run cancelled: %w", ctx.Err()))
			continue
		}

		nodeLogger := logger.With("instance", node.ID())
		nodeLogger.Info("Starting instance.")
		node.SetOutcome(dag.Running)

		err := e.runInstance(ctx, node)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled mid-run: the instance is skipped, not failed.
				e.skipNode(ctx, node, fmt.Errorf("run cancelled: %w", ctx.Err()))
				continue
			}
			nodeLogger.Error("Instance failed.", "error", err)
			node.SetOutcome(dag.Failed)
			node.Err = err
			e.wg.Done()
			for _, dependent := range node.Dependents {
				e.skipNode(ctx, dependent, fmt.Errorf("upstream %q failed", node.ID()))
			}
			continue
		}

		nodeLogger.Info("Instance succeeded.")
		node.SetOutcome(dag.Succeeded)
		for _, dependent := range node.Dependents {
			if dependent.DecrementDepCount() == 0 {
				nodeLogger.Debug("Unlocking dependent instance.", "dependent", dependent.ID())
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
	logger.Debug("Worker finished.")
}

// runInstance gathers consumed artifacts, invokes the runner, and
// publishes produced artifacts on success. Any error fails only this
// instance; siblings are untouched.
func (e *Executor) runInstance(ctx context.Context, node *dag.Node) error {
	inst := node.Instance

	inputs := make(map[string][]byte, len(inst.Consumes))
	for _, key := range inst.Consumes {
		blob, err := e.store.Fetch(key)
		if err != nil {
			return fmt.Errorf("gathering artifact: %w", err)
		}
		inputs[key] = blob
	}

	bindings := make(map[string]string, len(inst.Bindings))
	for _, b := range inst.Bindings {
		bindings[b.Axis] = b.Value
	}

	result, err := e.runner.Run(ctx, runner.Work{
		InstanceID: inst.ID,
		Job:        inst.Template.Name,
		Bindings:   bindings,
		Env:        inst.Env,
		Commands:   inst.Commands,
		Inputs:     inputs,
		Outputs:    inst.Produces,
	})
	if err != nil {
		return err
	}
	if !result.OK {
		return errRunnerFailure
	}

	for _, key := range inst.Produces {
		blob, ok := result.Outputs[key]
		if !ok {
			return fmt.Errorf("runner returned no blob for declared artifact %q", key)
		}
		if err := e.store.Publish(key, blob, inst.Template.Retention); err != nil {
			return fmt.Errorf("publishing artifact: %w", err)
		}
	}
	return nil
}
