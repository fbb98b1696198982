// Package runner defines the boundary between the orchestrator and the
// execution substrate that actually performs an instance's work.
package runner

import "context"

// Work is everything the orchestrator hands to a runner for one instance.
type Work struct {
	InstanceID string
	Job        string
	Bindings   map[string]string // axis -> bound value
	Env        map[string]string
	Commands   []string
	Inputs     map[string][]byte // fetched artifacts by key
	Outputs    []string          // artifact keys expected back on success
}

// Result is the runner's report for one instance.
type Result struct {
	OK      bool
	Outputs map[string][]byte
}

// Runner executes one instance's commands. Implementations must honor
// context cancellation. A clean failure of the work itself is
// Result{OK: false} with a nil error; a non-nil error means the runner
// could not perform the work at all. Either way the instance fails.
type Runner interface {
	Run(ctx context.Context, w Work) (Result, error)
}
