package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/vk/gridci/internal/ctxlog"
)

// Shell runs instance commands locally through the system shell, one
// scratch working directory per instance. Input artifacts are
// materialized as files named by their key; declared outputs are
// harvested from the same directory after the last command succeeds.
type Shell struct {
	// BaseDir is the parent for per-instance work directories. Empty
	// means the system temp directory.
	BaseDir string
}

// Run implements Runner.
func (s *Shell) Run(ctx context.Context, w Work) (Result, error) {
	logger := ctxlog.FromContext(ctx).With("instance", w.InstanceID)

	dir, err := os.MkdirTemp(s.BaseDir, "gridci-*")
	if err != nil {
		return Result{}, fmt.Errorf("creating work directory: %w", err)
	}
	defer os.RemoveAll(dir)

	for key, data := range w.Inputs {
		path, err := artifactPath(dir, key)
		if err != nil {
			return Result{}, err
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return Result{}, fmt.Errorf("materializing input %q: %w", key, err)
		}
	}

	env := os.Environ()
	for axis, value := range w.Bindings {
		env = append(env, fmt.Sprintf("MATRIX_%s=%s", envName(axis), value))
	}
	for k, v := range w.Env {
		env = append(env, k+"="+v)
	}

	for _, command := range w.Commands {
		logger.Debug("Running command.", "command", command)
		cmd := exec.CommandContext(ctx, "sh", "-c", command)
		cmd.Dir = dir
		cmd.Env = env
		output, err := cmd.CombinedOutput()
		if len(output) > 0 {
			logger.Debug("Command output.", "output", string(output))
		}
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				logger.Debug("Command exited non-zero.", "command", command, "code", exitErr.ExitCode())
				return Result{}, nil
			}
			return Result{}, fmt.Errorf("running command %q: %w", command, err)
		}
	}

	outputs := make(map[string][]byte, len(w.Outputs))
	for _, key := range w.Outputs {
		path, err := artifactPath(dir, key)
		if err != nil {
			return Result{}, err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Result{}, fmt.Errorf("declared output %q was not produced: %w", key, err)
		}
		outputs[key] = data
	}

	return Result{OK: true, Outputs: outputs}, nil
}

// artifactPath maps an artifact key to a file inside the work directory,
// rejecting keys that would escape it.
func artifactPath(dir, key string) (string, error) {
	if key == "" || strings.ContainsAny(key, "/\\") || strings.Contains(key, "..") {
		return "", fmt.Errorf("artifact key %q is not a valid file name", key)
	}
	return filepath.Join(dir, key), nil
}

// envName normalizes an axis name into an environment variable suffix.
func envName(axis string) string {
	upper := strings.ToUpper(axis)
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, upper)
}
