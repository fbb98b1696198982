package config

import (
	"time"

	"github.com/hashicorp/hcl/v2"
)

// Model is the format-agnostic representation of a loaded pipeline
// definition. A Loader produces it; the engine never touches raw files.
type Model struct {
	Pipeline *Pipeline
}

// Pipeline is one declared pipeline: its job templates and the terminal
// verdict step.
type Pipeline struct {
	Name    string
	Jobs    []*Job
	Verdict *Verdict
}

// Job is a declarative job template before matrix expansion.
//
// When, Produces, Consumes, Env and Run are kept as unevaluated
// expressions: When is evaluated once per template against the trigger
// context, the rest once per instance against that instance's matrix
// bindings.
type Job struct {
	Name      string
	When      hcl.Expression // nil means always eligible
	Axes      []*Axis
	Excludes  []Exclusion
	Needs     []string
	Produces  hcl.Expression // list of artifact keys
	Consumes  hcl.Expression // list of artifact keys
	Env       hcl.Expression // map of environment values
	Run       hcl.Expression // list of commands for the runner
	Retention time.Duration  // advisory retention for produced artifacts
}

// Axis is one named matrix dimension with an ordered value list. Axis and
// value order is preserved so instance identity is deterministic.
type Axis struct {
	Name   string
	Values []string
}

// Exclusion is a partial axis-value tuple. A candidate tuple matching
// every pair of any exclusion is dropped during expansion.
type Exclusion map[string]string

// Verdict is the terminal aggregation step with its declared prerequisites.
type Verdict struct {
	Name  string
	Needs []string
}

// Job returns the template with the given name, or nil.
func (p *Pipeline) Job(name string) *Job {
	for _, j := range p.Jobs {
		if j.Name == name {
			return j
		}
	}
	return nil
}

// HasAxis reports whether the template declares the named axis.
func (j *Job) HasAxis(name string) bool {
	for _, a := range j.Axes {
		if a.Name == name {
			return true
		}
	}
	return false
}
