// Package trigger evaluates job gates against the run's invocation
// context. Gates are pure predicates: evaluated once per template, never
// per instance, with no side effects.
package trigger

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

// Kind enumerates the invocation kinds a pipeline run can have.
type Kind string

const (
	Push        Kind = "push"
	PullRequest Kind = "pull-request"
	Schedule    Kind = "schedule"
	Manual      Kind = "manual"
)

// ParseKind validates a raw invocation kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case Push, PullRequest, Schedule, Manual:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown invocation kind %q (expected push, pull-request, schedule or manual)", s)
}

// Context is the run's invocation context, supplied once per run and
// consulted only by gate evaluation.
type Context struct {
	Kind  Kind
	Force bool // manual override flag
}

// Variables exposes the context to gate expressions under the "trigger"
// root, as trigger.kind and trigger.force.
func (c Context) Variables() map[string]cty.Value {
	return map[string]cty.Value{
		"trigger": cty.ObjectVal(map[string]cty.Value{
			"kind":  cty.StringVal(string(c.Kind)),
			"force": cty.BoolVal(c.Force),
		}),
	}
}

// Eligible evaluates a template's gate against the run context. Templates
// without a gate are always eligible. A gate that does not evaluate to a
// boolean is a definition error.
func Eligible(ctx context.Context, job *config.Job, tc Context) (bool, error) {
	if job.When == nil {
		return true, nil
	}

	val, diags := job.When.Value(&hcl.EvalContext{Variables: tc.Variables()})
	if diags.HasErrors() {
		return false, fmt.Errorf("job %q: evaluating when: %w", job.Name, diags)
	}
	if val.IsNull() || !val.Type().Equals(cty.Bool) {
		return false, fmt.Errorf("job %q: when must evaluate to a boolean", job.Name)
	}

	eligible := val.True()
	ctxlog.FromContext(ctx).Debug("Evaluated trigger gate.",
		"job", job.Name, "kind", string(tc.Kind), "force", tc.Force, "eligible", eligible)
	return eligible, nil
}
