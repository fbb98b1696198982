package hcl

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// translatePipeline converts the HCL pipeline schema into the agnostic model.
func (l *Loader) translatePipeline(ctx context.Context, s *schema.Pipeline) (*config.Pipeline, error) {
	logger := ctxlog.FromContext(ctx)

	p := &config.Pipeline{Name: s.Name}

	for _, job := range s.Jobs {
		translated, err := l.translateJob(job)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", s.Name, err)
		}
		p.Jobs = append(p.Jobs, translated)
	}

	switch len(s.Verdicts) {
	case 0:
		// Absence is a definition error, but it is reported by validation
		// alongside the other definition checks, not by the loader.
	case 1:
		p.Verdict = &config.Verdict{
			Name:  s.Verdicts[0].Name,
			Needs: s.Verdicts[0].Needs,
		}
	default:
		return nil, fmt.Errorf("pipeline %q: at most one verdict block is allowed, found %d", s.Name, len(s.Verdicts))
	}

	logger.Debug("Translated pipeline.", "name", p.Name, "jobs", len(p.Jobs))
	return p, nil
}

// translateJob converts a job block into a template, interpreting the
// exclude blocks as partial axis-value tuples.
func (l *Loader) translateJob(s *schema.Job) (*config.Job, error) {
	job := &config.Job{
		Name:     s.Name,
		When:     s.When,
		Needs:    s.Needs,
		Produces: s.Produces,
		Consumes: s.Consumes,
		Env:      s.Env,
		Run:      s.Run,
	}

	if s.Retention != "" {
		d, err := time.ParseDuration(s.Retention)
		if err != nil {
			return nil, fmt.Errorf("job %q: invalid retention: %w", s.Name, err)
		}
		job.Retention = d
	}

	if s.Matrix == nil {
		return job, nil
	}

	for _, axis := range s.Matrix.Axes {
		job.Axes = append(job.Axes, &config.Axis{
			Name:   axis.Name,
			Values: axis.Values,
		})
	}

	for _, ex := range s.Matrix.Excludes {
		attrs, diags := ex.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("job %q: reading exclude block: %w", s.Name, diags)
		}
		tuple := make(config.Exclusion, len(attrs))
		for name, attr := range attrs {
			val, diags := attr.Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("job %q: exclude value for %q: %w", s.Name, name, diags)
			}
			strVal, err := convert.Convert(val, cty.String)
			if err != nil {
				return nil, fmt.Errorf("job %q: exclude value for %q must be a string: %w", s.Name, name, err)
			}
			tuple[name] = strVal.AsString()
		}
		job.Excludes = append(job.Excludes, tuple)
	}

	return job, nil
}
