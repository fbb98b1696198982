package dag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/gridci/internal/config"
)

func pipelineWith(jobs ...*config.Job) *config.Pipeline {
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name)
	}
	return &config.Pipeline{
		Name:    "ci",
		Jobs:    jobs,
		Verdict: &config.Verdict{Name: "needed", Needs: names},
	}
}

func TestValidatePipeline(t *testing.T) {
	t.Run("valid definition passes", func(t *testing.T) {
		p := pipelineWith(
			&config.Job{Name: "build"},
			&config.Job{Name: "test", Needs: []string{"build"}},
		)
		assert.NoError(t, ValidatePipeline(p))
	})

	t.Run("duplicate job names rejected", func(t *testing.T) {
		p := pipelineWith(&config.Job{Name: "build"})
		p.Jobs = append(p.Jobs, &config.Job{Name: "build"})
		assert.ErrorContains(t, ValidatePipeline(p), "duplicate job name")
	})

	t.Run("missing verdict rejected", func(t *testing.T) {
		p := pipelineWith(&config.Job{Name: "build"})
		p.Verdict = nil
		assert.ErrorContains(t, ValidatePipeline(p), "verdict block is required")
	})

	t.Run("dangling need rejected", func(t *testing.T) {
		p := pipelineWith(&config.Job{Name: "test", Needs: []string{"build"}})
		assert.ErrorContains(t, ValidatePipeline(p), `needs unknown job "build"`)
	})

	t.Run("self-need rejected", func(t *testing.T) {
		p := pipelineWith(&config.Job{Name: "build", Needs: []string{"build"}})
		assert.ErrorContains(t, ValidatePipeline(p), "needs itself")
	})

	t.Run("needs cycle rejected", func(t *testing.T) {
		p := pipelineWith(
			&config.Job{Name: "a", Needs: []string{"c"}},
			&config.Job{Name: "b", Needs: []string{"a"}},
			&config.Job{Name: "c", Needs: []string{"b"}},
		)
		assert.ErrorContains(t, ValidatePipeline(p), "needs cycle detected")
	})

	t.Run("exclude on undeclared axis rejected", func(t *testing.T) {
		p := pipelineWith(&config.Job{
			Name:     "build",
			Axes:     []*config.Axis{{Name: "mode", Values: []string{"a"}}},
			Excludes: []config.Exclusion{{"arch": "arm64"}},
		})
		assert.ErrorContains(t, ValidatePipeline(p), "undeclared axis")
	})
}
