package testutil

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/hcl"
	"github.com/vk/gridci/internal/pipeline"
	"github.com/vk/gridci/internal/runner"
	"github.com/vk/gridci/internal/trigger"
)

// HarnessResult holds the outcomes of one harnessed pipeline run.
type HarnessResult struct {
	Report    *pipeline.Report
	Err       error
	LogOutput string
}

// RunPipelineTest writes the given definition files to a temp directory,
// loads them, and executes the pipeline with the provided trigger context
// and runner. Loader and definition errors come back in Err.
func RunPipelineTest(t *testing.T, files map[string]string, tc trigger.Context, r runner.Runner) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	logBuf := &SafeBuffer{}
	logger := slog.New(slog.NewTextHandler(logBuf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := ctxlog.WithLogger(context.Background(), logger)

	model, err := hcl.NewLoader().Load(ctx, tmpDir)
	if err != nil {
		return &HarnessResult{Err: err, LogOutput: logBuf.String()}
	}

	report, err := pipeline.Execute(ctx, model, pipeline.Options{
		Trigger: tc,
		Runner:  r,
		Workers: 4,
	})
	return &HarnessResult{Report: report, Err: err, LogOutput: logBuf.String()}
}
