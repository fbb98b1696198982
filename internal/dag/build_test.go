package dag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/matrix"
)

func expandAll(t *testing.T, p *config.Pipeline) []*matrix.Instance {
	t.Helper()
	var instances []*matrix.Instance
	for _, job := range p.Jobs {
		batch, err := matrix.Expand(context.Background(), job, true)
		require.NoError(t, err)
		instances = append(instances, batch...)
	}
	return instances
}

func TestBuildSharedAxisSliceFanIn(t *testing.T) {
	build := &config.Job{
		Name: "build",
		Axes: []*config.Axis{{Name: "mode", Values: []string{"a", "b"}}},
	}
	test := &config.Job{
		Name:  "test",
		Axes:  []*config.Axis{{Name: "mode", Values: []string{"a", "b"}}},
		Needs: []string{"build"},
	}
	p := &config.Pipeline{Name: "ci", Jobs: []*config.Job{build, test}}

	graph, err := Build(context.Background(), p, expandAll(t, p))
	require.NoError(t, err)
	require.Len(t, graph.Nodes, 4)

	testA := graph.Nodes["job.test[mode=a]"]
	require.NotNil(t, testA)
	require.Len(t, testA.Deps, 1)
	assert.Contains(t, testA.Deps, "job.build[mode=a]")

	testB := graph.Nodes["job.test[mode=b]"]
	require.NotNil(t, testB)
	require.Len(t, testB.Deps, 1)
	assert.Contains(t, testB.Deps, "job.build[mode=b]")

	buildA := graph.Nodes["job.build[mode=a]"]
	assert.Contains(t, buildA.Dependents, "job.test[mode=a]")
	assert.NotContains(t, buildA.Dependents, "job.test[mode=b]")
}

func TestBuildDisjointAxesFullFanIn(t *testing.T) {
	build := &config.Job{
		Name: "build",
		Axes: []*config.Axis{{Name: "mode", Values: []string{"a", "b", "c"}}},
	}
	bundle := &config.Job{
		Name:  "bundle",
		Needs: []string{"build"},
	}
	p := &config.Pipeline{Name: "ci", Jobs: []*config.Job{build, bundle}}

	graph, err := Build(context.Background(), p, expandAll(t, p))
	require.NoError(t, err)

	node := graph.Nodes["job.bundle"]
	require.NotNil(t, node)
	assert.Len(t, node.Deps, 3, "an unmatrixed dependent fans in on every variant")
	assert.EqualValues(t, 3, node.DepCount())
}

func TestBuildPartialAxisOverlap(t *testing.T) {
	build := &config.Job{
		Name: "build",
		Axes: []*config.Axis{{Name: "mode", Values: []string{"a", "b"}}},
	}
	test := &config.Job{
		Name: "test",
		Axes: []*config.Axis{
			{Name: "mode", Values: []string{"a", "b"}},
			{Name: "suite", Values: []string{"unit", "e2e"}},
		},
		Needs: []string{"build"},
	}
	p := &config.Pipeline{Name: "ci", Jobs: []*config.Job{build, test}}

	graph, err := Build(context.Background(), p, expandAll(t, p))
	require.NoError(t, err)

	// Each test instance depends only on the build slice sharing its mode.
	node := graph.Nodes["job.test[mode=a,suite=unit]"]
	require.NotNil(t, node)
	require.Len(t, node.Deps, 1)
	assert.Contains(t, node.Deps, "job.build[mode=a]")
}

func TestBuildRejectsUnknownNeed(t *testing.T) {
	job := &config.Job{Name: "test", Needs: []string{"missing"}}
	p := &config.Pipeline{Name: "ci", Jobs: []*config.Job{job}}

	_, err := Build(context.Background(), p, expandAll(t, p))
	assert.ErrorContains(t, err, "unknown job")
}

func TestBuildRejectsDuplicateIdentity(t *testing.T) {
	job := &config.Job{Name: "build"}
	p := &config.Pipeline{Name: "ci", Jobs: []*config.Job{job}}

	inst, err := matrix.Expand(context.Background(), job, true)
	require.NoError(t, err)
	_, err = Build(context.Background(), p, append(inst, inst...))
	assert.ErrorContains(t, err, "duplicate instance identity")
}

func TestOutcomeTransitions(t *testing.T) {
	node := &Node{}
	assert.Equal(t, Pending, node.Outcome())
	assert.False(t, node.Outcome().Terminal())

	node.SetOutcome(Running)
	assert.Equal(t, "running", node.Outcome().String())

	node.SetOutcome(Succeeded)
	assert.True(t, node.Outcome().Terminal())
}

func TestMarkSkippedOnce(t *testing.T) {
	node := &Node{}

	first := node.MarkSkipped(assert.AnError)
	assert.True(t, first)
	assert.Equal(t, Skipped, node.Outcome())
	assert.Equal(t, assert.AnError, node.Err)

	assert.False(t, node.MarkSkipped(assert.AnError), "second transition is a no-op")
}
