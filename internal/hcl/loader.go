// Package hcl loads pipeline definitions written in HCL and translates
// them into the agnostic config model.
package hcl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/gridci/internal/config"
	"github.com/vk/gridci/internal/ctxlog"
	"github.com/vk/gridci/internal/schema"
)

// Loader is the HCL implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new HCL definition loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file under the given paths and merges the result
// into a single model. Exactly one pipeline block must be declared across
// all files.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl definition files found in %v", paths)
	}
	logger.Debug("Discovered definition files.", "count", len(files))

	parser := hclparse.NewParser()

	var pipelines []*schema.Pipeline
	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		var root schema.Root
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}
		pipelines = append(pipelines, root.Pipelines...)
	}

	switch len(pipelines) {
	case 0:
		return nil, fmt.Errorf("no pipeline block declared in %v", paths)
	case 1:
		// expected
	default:
		return nil, fmt.Errorf("expected exactly one pipeline block, found %d", len(pipelines))
	}

	p, err := l.translatePipeline(ctx, pipelines[0])
	if err != nil {
		return nil, err
	}

	logger.Debug("HCL loading complete.", "pipeline", p.Name, "jobs", len(p.Jobs))
	return &config.Model{Pipeline: p}, nil
}

// findAllHCLFiles walks the given paths and returns every .hcl file found,
// in a stable order.
func findAllHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if _, ok := seen[path]; !ok {
				all = append(all, path)
				seen[path] = struct{}{}
			}
			continue
		}

		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && filepath.Ext(p) == ".hcl" {
				if _, ok := seen[p]; !ok {
					all = append(all, p)
					seen[p] = struct{}{}
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return all, nil
}
