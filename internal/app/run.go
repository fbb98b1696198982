package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/pipeline"
	"github.com/vk/gridci/internal/runner"
	"github.com/vk/gridci/internal/trigger"
)

// Run executes the loaded pipeline and prints the final report. The
// returned error is non-nil when the definition is rejected or the run's
// verdict is failure, so main can map it to the exit code.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run started.")

	kind, err := trigger.ParseKind(a.cfg.Event)
	if err != nil {
		return err
	}

	report, err := pipeline.Execute(ctx, a.model, pipeline.Options{
		Trigger: trigger.Context{Kind: kind, Force: a.cfg.Force},
		Runner:  &runner.Shell{},
		Workers: a.cfg.Workers,
	})
	if err != nil {
		return fmt.Errorf("pipeline definition rejected: %w", err)
	}

	a.printReport(report)
	if report.Outcome != pipeline.OutcomeSuccess {
		return fmt.Errorf("pipeline %q: %s", report.Pipeline, report.Outcome)
	}
	return nil
}

// printReport writes a human-readable summary to the app's output writer.
func (a *App) printReport(report *pipeline.Report) {
	fmt.Fprintf(a.outW, "\npipeline %s: %s (run %s)\n", report.Pipeline, report.Outcome, report.RunID)
	for _, inst := range report.Instances {
		if inst.Reason != "" {
			fmt.Fprintf(a.outW, "  %-10s %s (%s)\n", inst.Outcome, inst.ID, inst.Reason)
			continue
		}
		fmt.Fprintf(a.outW, "  %-10s %s\n", inst.Outcome, inst.ID)
	}
	if drift := report.Verdict.Drift; drift != nil {
		if len(drift.Ungated) > 0 {
			fmt.Fprintf(a.outW, "drift: jobs missing from verdict needs: %s\n", strings.Join(drift.Ungated, ", "))
		}
		if len(drift.UnknownNeeds) > 0 {
			fmt.Fprintf(a.outW, "drift: needs without a declared job: %s\n", strings.Join(drift.UnknownNeeds, ", "))
		}
	}
}
