// Package matrix materializes job templates into concrete instances: the
// cartesian product of the template's axes, filtered by its exclusion
// tuples, with matrix placeholders resolved per instance.
package matrix

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Expand materializes a job template. Zero-axis templates expand to
// exactly one instance; an axis with an empty value list yields zero
// instances for the whole template. Exclusions are evaluated
// independently per tuple, so a tuple matching several exclusions is
// still dropped exactly once.
func Expand(ctx context.Context, job *config.Job, eligible bool) ([]*Instance, error) {
	logger := ctxlog.FromContext(ctx)

	tuples := cartesian(job.Axes)
	instances := make([]*Instance, 0, len(tuples))
	for _, tuple := range tuples {
		if excluded(job.Excludes, tuple) {
			logger.Debug("Dropping excluded combination.", "job", job.Name, "id", instanceID(job.Name, tuple))
			continue
		}
		inst, err := newInstance(job, tuple, eligible)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}

	logger.Debug("Expanded job template.", "job", job.Name, "instances", len(instances))
	return instances, nil
}

// cartesian returns every combination of one value per axis, preserving
// axis and value order. No axes yields a single empty tuple; an empty
// value list collapses the product to nothing.
func cartesian(axes []*config.Axis) [][]Binding {
	tuples := [][]Binding{nil}
	for _, axis := range axes {
		if len(axis.Values) == 0 {
			return nil
		}
		next := make([][]Binding, 0, len(tuples)*len(axis.Values))
		for _, tuple := range tuples {
			for _, value := range axis.Values {
				nt := make([]Binding, len(tuple), len(tuple)+1)
				copy(nt, tuple)
				next = append(next, append(nt, Binding{Axis: axis.Name, Value: value}))
			}
		}
		tuples = next
	}
	return tuples
}

// excluded reports whether any exclusion tuple fully matches the candidate.
func excluded(excludes []config.Exclusion, tuple []Binding) bool {
	for _, ex := range excludes {
		if matches(ex, tuple) {
			return true
		}
	}
	return false
}

func matches(ex config.Exclusion, tuple []Binding) bool {
	for axis, want := range ex {
		found := false
		for _, b := range tuple {
			if b.Axis == axis {
				found = b.Value == want
				break
			}
		}
		if !found {
			return false
		}
	}
	return len(ex) > 0
}

// newInstance resolves the template's expression-valued attributes against
// one tuple's bindings.
func newInstance(job *config.Job, tuple []Binding, eligible bool) (*Instance, error) {
	ectx := EvalContext(tuple)
	id := instanceID(job.Name, tuple)

	produces, err := evalStringList(job.Produces, ectx)
	if err != nil {
		return nil, fmt.Errorf("%s: resolving produces: %w", id, err)
	}
	consumes, err := evalStringList(job.Consumes, ectx)
	if err != nil {
		return nil, fmt.Errorf("%s: resolving consumes: %w", id, err)
	}
	commands, err := evalStringList(job.Run, ectx)
	if err != nil {
		return nil, fmt.Errorf("%s: resolving run: %w", id, err)
	}
	env, err := evalStringMap(job.Env, ectx)
	if err != nil {
		return nil, fmt.Errorf("%s: resolving env: %w", id, err)
	}

	return &Instance{
		Template: job,
		ID:       id,
		Bindings: tuple,
		Eligible: eligible,
		Produces: produces,
		Consumes: consumes,
		Env:      env,
		Commands: commands,
	}, nil
}

// EvalContext exposes one tuple's bindings to expressions as matrix.<axis>.
func EvalContext(bindings []Binding) *hcl.EvalContext {
	attrs := make(map[string]cty.Value, len(bindings))
	for _, b := range bindings {
		attrs[b.Axis] = cty.StringVal(b.Value)
	}
	matrixVal := cty.EmptyObjectVal
	if len(attrs) > 0 {
		matrixVal = cty.ObjectVal(attrs)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"matrix": matrixVal},
	}
}

func evalStringList(expr hcl.Expression, ectx *hcl.EvalContext) ([]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	listVal, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("expected a list of strings: %w", err)
	}
	var out []string
	for it := listVal.ElementIterator(); it.Next(); {
		_, v := it.Element()
		out = append(out, v.AsString())
	}
	return out, nil
}

func evalStringMap(expr hcl.Expression, ectx *hcl.EvalContext) (map[string]string, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(ectx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	mapVal, err := convert.Convert(val, cty.Map(cty.String))
	if err != nil {
		return nil, fmt.Errorf("expected a map of strings: %w", err)
	}
	out := make(map[string]string)
	for it := mapVal.ElementIterator(); it.Next(); {
		k, v := it.Element()
		out[k.AsString()] = v.AsString()
	}
	return out, nil
}
