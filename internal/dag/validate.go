package dag

import (
	"fmt"

	"github.com/vk/gridci/internal/config"
)

// ValidatePipeline rejects malformed definitions before anything runs:
// duplicate job names, needs referencing unknown jobs, cyclic needs,
// exclusions referencing undeclared axes, and a missing verdict block.
func ValidatePipeline(p *config.Pipeline) error {
	names := make(map[string]struct{}, len(p.Jobs))
	for _, job := range p.Jobs {
		if _, dup := names[job.Name]; dup {
			return fmt.Errorf("pipeline %q: duplicate job name %q", p.Name, job.Name)
		}
		names[job.Name] = struct{}{}
	}

	if p.Verdict == nil {
		return fmt.Errorf("pipeline %q: a verdict block is required", p.Name)
	}

	for _, job := range p.Jobs {
		for _, need := range job.Needs {
			if need == job.Name {
				return fmt.Errorf("job %q needs itself", job.Name)
			}
			if _, ok := names[need]; !ok {
				return fmt.Errorf("job %q needs unknown job %q", job.Name, need)
			}
		}
		for _, ex := range job.Excludes {
			for axis := range ex {
				if !job.HasAxis(axis) {
					return fmt.Errorf("job %q: exclude references undeclared axis %q", job.Name, axis)
				}
			}
		}
	}

	return detectTemplateCycles(p.Jobs)
}

// detectTemplateCycles runs DFS over the template-level needs relation.
// Instance-level acyclicity is inherited from this check plus
// deterministic expansion, but Build re-verifies it anyway.
func detectTemplateCycles(jobs []*config.Job) error {
	byName := make(map[string]*config.Job, len(jobs))
	for _, job := range jobs {
		byName[job.Name] = job
	}

	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(job *config.Job) error
	visit = func(job *config.Job) error {
		visiting[job.Name] = true
		for _, need := range job.Needs {
			if visiting[need] {
				return fmt.Errorf("needs cycle detected involving job %q", need)
			}
			if !visited[need] {
				if err := visit(byName[need]); err != nil {
					return err
				}
			}
		}
		delete(visiting, job.Name)
		visited[job.Name] = true
		return nil
	}

	for _, job := range jobs {
		if !visited[job.Name] {
			if err := visit(job); err != nil {
				return err
			}
		}
	}
	return nil
}
