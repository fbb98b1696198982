package testutil

import (
	"context"
	"sync"

	"github.com/vk/gridci/internal/runner"
)

// FakeRunner is a scripted runner: per-job success, failure or hard
// error, canned outputs, and a record of every invocation. It keeps the
// scheduler testable without a real execution substrate.
type FakeRunner struct {
	// Fail lists job names whose instances report a clean failure.
	Fail map[string]bool
	// Err lists job names whose instances break the runner itself.
	Err map[string]error
	// OutputsFor, when set, supplies the output blobs for an invocation.
	// Otherwise each declared output is filled with its own key.
	OutputsFor func(w runner.Work) map[string][]byte

	mu    sync.Mutex
	calls []runner.Work
}

// Run implements runner.Runner.
func (f *FakeRunner) Run(ctx context.Context, w runner.Work) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, w)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return runner.Result{}, err
	}
	if err := f.Err[w.Job]; err != nil {
		return runner.Result{}, err
	}
	if f.Fail[w.Job] {
		return runner.Result{}, nil
	}

	outputs := make(map[string][]byte, len(w.Outputs))
	if f.OutputsFor != nil {
		outputs = f.OutputsFor(w)
	} else {
		for _, key := range w.Outputs {
			outputs[key] = []byte(key)
		}
	}
	return runner.Result{OK: true, Outputs: outputs}, nil
}

// Calls returns a copy of every recorded invocation.
func (f *FakeRunner) Calls() []runner.Work {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Work(nil), f.calls...)
}

// Ran returns how many instances of the named job were dispatched.
func (f *FakeRunner) Ran(job string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, c := range f.calls {
		if c.Job == job {
			count++
		}
	}
	return count
}
