package verdict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/dag"
	"github.com/vk/gridci/internal/matrix"
)

// graphWith builds a one-instance-per-job graph and forces each node to
// the given terminal outcome.
func graphWith(t *testing.T, p *config.Pipeline, outcomes map[string]dag.Outcome) *dag.Graph {
	t.Helper()
	var instances []*matrix.Instance
	for _, job := range p.Jobs {
		batch, err := matrix.Expand(context.Background(), job, true)
		require.NoError(t, err)
		instances = append(instances, batch...)
	}
	g, err := dag.Build(context.Background(), p, instances)
	require.NoError(t, err)
	for id, node := range g.Nodes {
		outcome, ok := outcomes[id]
		require.True(t, ok, "no scripted outcome for %s", id)
		node.SetOutcome(outcome)
	}
	return g
}

func pipelineOf(jobs []*config.Job, needs ...string) *config.Pipeline {
	return &config.Pipeline{
		Name:    "ci",
		Jobs:    jobs,
		Verdict: &config.Verdict{Name: "needed", Needs: needs},
	}
}

func TestAggregate(t *testing.T) {
	ctx := context.Background()

	t.Run("all needed instances succeeded", func(t *testing.T) {
		p := pipelineOf([]*config.Job{{Name: "build"}, {Name: "test"}}, "build", "test")
		g := graphWith(t, p, map[string]dag.Outcome{
			"job.build": dag.Succeeded,
			"job.test":  dag.Succeeded,
		})

		result := Aggregate(ctx, p, g)
		assert.True(t, result.Passed)
		assert.Nil(t, result.Drift)
		assert.Empty(t, result.Unmet)
	})

	t.Run("failed instance fails the run", func(t *testing.T) {
		p := pipelineOf([]*config.Job{{Name: "build"}, {Name: "test"}}, "build", "test")
		g := graphWith(t, p, map[string]dag.Outcome{
			"job.build": dag.Failed,
			"job.test":  dag.Skipped,
		})

		result := Aggregate(ctx, p, g)
		assert.False(t, result.Passed)
		assert.Equal(t, []string{"job.build", "job.test"}, result.Unmet)
	})

	t.Run("skipped counts as failure", func(t *testing.T) {
		p := pipelineOf([]*config.Job{{Name: "build"}}, "build")
		g := graphWith(t, p, map[string]dag.Outcome{"job.build": dag.Skipped})

		result := Aggregate(ctx, p, g)
		assert.False(t, result.Passed)
		assert.Equal(t, []string{"job.build"}, result.Unmet)
	})

	t.Run("unmet instances are sorted by identity", func(t *testing.T) {
		p := pipelineOf([]*config.Job{
			{Name: "build", Axes: []*config.Axis{{Name: "mode", Values: []string{"b", "a"}}}},
		}, "build")
		g := graphWith(t, p, map[string]dag.Outcome{
			"job.build[mode=a]": dag.Failed,
			"job.build[mode=b]": dag.Failed,
		})

		result := Aggregate(ctx, p, g)
		assert.Equal(t, []string{"job.build[mode=a]", "job.build[mode=b]"}, result.Unmet)
	})
}

func TestAggregateDrift(t *testing.T) {
	ctx := context.Background()

	t.Run("ungated job fails despite green instances", func(t *testing.T) {
		p := pipelineOf([]*config.Job{{Name: "build"}, {Name: "docs"}}, "build")
		g := graphWith(t, p, map[string]dag.Outcome{
			"job.build": dag.Succeeded,
			"job.docs":  dag.Succeeded,
		})

		result := Aggregate(ctx, p, g)
		assert.False(t, result.Passed)
		require.NotNil(t, result.Drift)
		assert.Equal(t, []string{"docs"}, result.Drift.Ungated)
		assert.Empty(t, result.Drift.UnknownNeeds)
	})

	t.Run("unknown need is reported", func(t *testing.T) {
		p := pipelineOf([]*config.Job{{Name: "build"}}, "build", "retired")
		g := graphWith(t, p, map[string]dag.Outcome{"job.build": dag.Succeeded})

		result := Aggregate(ctx, p, g)
		assert.False(t, result.Passed)
		require.NotNil(t, result.Drift)
		assert.Empty(t, result.Drift.Ungated)
		assert.Equal(t, []string{"retired"}, result.Drift.UnknownNeeds)
	})

	t.Run("both sides of the drift are sorted", func(t *testing.T) {
		p := pipelineOf([]*config.Job{
			{Name: "zeta"}, {Name: "alpha"}, {Name: "build"},
		}, "build", "omega", "gamma")
		g := graphWith(t, p, map[string]dag.Outcome{
			"job.zeta":  dag.Succeeded,
			"job.alpha": dag.Succeeded,
			"job.build": dag.Succeeded,
		})

		result := Aggregate(ctx, p, g)
		require.NotNil(t, result.Drift)
		assert.Equal(t, []string{"alpha", "zeta"}, result.Drift.Ungated)
		assert.Equal(t, []string{"gamma", "omega"}, result.Drift.UnknownNeeds)
	})
}
