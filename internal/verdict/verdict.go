// Package verdict computes the terminal result of a pipeline run: the
// outcome check over every prerequisite instance, and the drift check
// that keeps the declared job set and the verdict's needs from silently
// diverging.
package verdict

import (
	"context"
	"sort"

	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/dag"
)

// Drift is the symmetric difference between the declared job-name set and
// the verdict's needs. Both sides are sorted.
type Drift struct {
	// Ungated lists declared jobs absent from the verdict's needs: jobs
	// the terminal step would never gate on.
	Ungated []string
	// UnknownNeeds lists needs with no corresponding declared job.
	UnknownNeeds []string
}

// Result is the final judgment for a pipeline run.
type Result struct {
	Passed bool
	// Drift is nil when the declared set and the needs set agree.
	Drift *Drift
	// Unmet lists prerequisite instances that ended failed or skipped,
	// sorted by identity. Instances of jobs outside the needs set are
	// never listed.
	Unmet []string
}

// Aggregate computes the verdict. The drift check runs first: when the
// pipeline's self-description is untrustworthy the run fails even if
// every individual instance succeeded. The outcome check then fails the
// run for any needed instance that ended failed or skipped; a skip caused
// by an upstream failure must still surface here.
func Aggregate(ctx context.Context, p *config.Pipeline, g *dag.Graph) Result {
	logger := ctxlog.FromContext(ctx)

	needs := make(map[string]struct{}, len(p.Verdict.Needs))
	for _, name := range p.Verdict.Needs {
		needs[name] = struct{}{}
	}
	declared := make(map[string]struct{}, len(p.Jobs))
	for _, job := range p.Jobs {
		declared[job.Name] = struct{}{}
	}

	var drift *Drift
	var ungated, unknown []string
	for name := range declared {
		if _, ok := needs[name]; !ok {
			ungated = append(ungated, name)
		}
	}
	for name := range needs {
		if _, ok := declared[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(ungated) > 0 || len(unknown) > 0 {
		sort.Strings(ungated)
		sort.Strings(unknown)
		drift = &Drift{Ungated: ungated, UnknownNeeds: unknown}
		logger.Error("Verdict drift detected.",
			"verdict", p.Verdict.Name, "ungated_jobs", ungated, "unknown_needs", unknown)
	}

	var unmet []string
	for _, node := range g.Nodes {
		if _, ok := needs[node.Instance.Template.Name]; !ok {
			continue
		}
		switch node.Outcome() {
		case dag.Failed, dag.Skipped:
			unmet = append(unmet, node.ID())
		}
	}
	sort.Strings(unmet)
	if len(unmet) > 0 {
		logger.Error("Prerequisites did not succeed.", "verdict", p.Verdict.Name, "unmet", unmet)
	}

	passed := drift == nil && len(unmet) == 0
	if passed {
		logger.Info("Verdict passed.", "verdict", p.Verdict.Name)
	}
	return Result{Passed: passed, Drift: drift, Unmet: unmet}
}
