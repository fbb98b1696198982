package pipeline

import (
	"sort"

	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/dag"
	"github.com/vk/gridci/internal/verdict"
)

// Overall pipeline outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// InstanceReport is one instance's terminal outcome in the final report.
type InstanceReport struct {
	ID      string
	Job     string
	Outcome string
	Reason  string // cause for failed or skipped instances
}

// Report is the structured result of one pipeline run.
type Report struct {
	RunID     string
	Pipeline  string
	Outcome   string
	Verdict   verdict.Result
	Instances []InstanceReport // sorted by ID
}

func newReport(runID string, p *config.Pipeline, g *dag.Graph, result verdict.Result) *Report {
	report := &Report{
		RunID:    runID,
		Pipeline: p.Name,
		Outcome:  OutcomeFailure,
		Verdict:  result,
	}
	if result.Passed {
		report.Outcome = OutcomeSuccess
	}

	for _, node := range g.Nodes {
		ir := InstanceReport{
			ID:      node.ID(),
			Job:     node.Instance.Template.Name,
			Outcome: node.Outcome().String(),
		}
		if node.Err != nil {
			ir.Reason = node.Err.Error()
		}
		report.Instances = append(report.Instances, ir)
	}
	sort.Slice(report.Instances, func(i, j int) bool {
		return report.Instances[i].ID < report.Instances[j].ID
	})
	return report
}
