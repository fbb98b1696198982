// Package pipeline ties the run phases together: gate evaluation, matrix
// expansion, graph construction, dispatch, and the terminal verdict.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/gridci/internal/artifact"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/dag"
	"github.com/vk/gridci/internal/matrix"
	"github.com/vk/gridci/internal/runner"
	"github.com/vk/gridci/internal/scheduler"
	"github.com/vk/gridci/internal/trigger"
	"github.com/vk/gridci/internal/verdict"
)

// Options configures one pipeline run.
type Options struct {
	Trigger trigger.Context
	Runner  runner.Runner
	Workers int
}

// Execute runs a loaded pipeline definition end to end and returns the
// final report. A non-nil error is a definition error, raised before any
// instance runs; job failures are reported through the Report instead.
func Execute(ctx context.Context, model *config.Model, opts Options) (*Report, error) {
	if model == nil || model.Pipeline == nil {
		return nil, errors.New("no pipeline loaded")
	}
	if opts.Runner == nil {
		return nil, errors.New("a runner is required")
	}

	p := model.Pipeline
	if err := dag.ValidatePipeline(p); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := ctxlog.FromContext(ctx).With("run_id", runID, "pipeline", p.Name)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Info("Pipeline run starting.", "kind", string(opts.Trigger.Kind), "force", opts.Trigger.Force)

	// Expansion is synchronous and completes for the whole template set
	// before anything is scheduled.
	var instances []*matrix.Instance
	for _, job := range p.Jobs {
		eligible, err := trigger.Eligible(ctx, job, opts.Trigger)
		if err != nil {
			return nil, err
		}
		batch, err := matrix.Expand(ctx, job, eligible)
		if err != nil {
			return nil, err
		}
		instances = append(instances, batch...)
	}
	logger.Info("Expansion complete.", "instances", len(instances))

	graph, err := dag.Build(ctx, p, instances)
	if err != nil {
		return nil, err
	}

	store := artifact.NewStore()
	for _, inst := range instances {
		for _, key := range inst.Produces {
			if err := store.RegisterProducer(key, inst.ID); err != nil {
				return nil, fmt.Errorf("registering producers: %w", err)
			}
		}
	}

	exec := scheduler.New(graph, store, opts.Runner, opts.Workers)
	exec.Run(ctx)

	result := verdict.Aggregate(ctx, p, graph)
	report := newReport(runID, p, graph, result)
	logger.Info("Pipeline run finished.", "outcome", report.Outcome)
	return report, nil
}
