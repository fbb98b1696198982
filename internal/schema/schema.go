// Package schema declares the HCL block structures of a pipeline
// definition file, as decoded by gohcl before translation into the
// agnostic config model.
package schema

import "github.com/hashicorp/hcl/v2"

// Root is the top-level structure decoded from any definition file.
type Root struct {
	Pipelines []*Pipeline `hcl:"pipeline,block"`
	Body      hcl.Body    `hcl:",remain"`
}

// Pipeline represents a `pipeline` block.
type Pipeline struct {
	Name     string     `hcl:"name,label"`
	Jobs     []*Job     `hcl:"job,block"`
	Verdicts []*Verdict `hcl:"verdict,block"`
}

// Job represents a `job` block: one job template. Expression-valued
// attributes are captured unevaluated; the engine resolves them against
// trigger and matrix variables later.
type Job struct {
	Name      string         `hcl:"name,label"`
	When      hcl.Expression `hcl:"when,optional"`
	Matrix    *Matrix        `hcl:"matrix,block"`
	Needs     []string       `hcl:"needs,optional"`
	Produces  hcl.Expression `hcl:"produces,optional"`
	Consumes  hcl.Expression `hcl:"consumes,optional"`
	Env       hcl.Expression `hcl:"env,optional"`
	Run       hcl.Expression `hcl:"run,optional"`
	Retention string         `hcl:"retention,optional"`
}

// Matrix represents the `matrix` block within a job.
type Matrix struct {
	Axes     []*Axis    `hcl:"axis,block"`
	Excludes []*Exclude `hcl:"exclude,block"`
}

// Axis represents one `axis` block: a named dimension with an ordered
// value list.
type Axis struct {
	Name   string   `hcl:"name,label"`
	Values []string `hcl:"values"`
}

// Exclude represents an `exclude` block. Its attributes are arbitrary
// axis names, so the body is kept raw and interpreted during translation.
type Exclude struct {
	Body hcl.Body `hcl:",remain"`
}

// Verdict represents the `verdict` block: the terminal aggregation step.
type Verdict struct {
	Name  string   `hcl:"name,label"`
	Needs []string `hcl:"needs"`
}
