package hcl

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/matrixgen/internal/config"
	"github.com/vk/matrixgen/internal/ctxlog"
	"github.com/vk/matrixgen/internal/fsutil"
	"github.com/vk/matrixgen/internal/schema"
)

// specExtension is the file suffix of matrix specification files.
const specExtension = ".hcl"

// Loader is the HCL implementation of the config.Loader interface.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new HCL loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// Load reads every specification file reachable from the given paths,
// decodes it, and translates the merged result into the format-agnostic
// model. File discovery is sorted, so the merge order, and therefore the
// resulting model, is deterministic.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat spec path %s: %w", path, err)
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, specExtension)
		if err != nil {
			return nil, fmt.Errorf("discover spec files under %s: %w", path, err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s specification files found in %v", specExtension, paths)
	}
	logger.Debug("Specification files discovered.", "count", len(files))

	var parsed []*schema.SpecFile
	for _, file := range files {
		spec, err := l.parseFile(file)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, spec)
	}

	model, err := l.translate(ctx, parsed)
	if err != nil {
		return nil, err
	}
	logger.Debug("Specification loaded and translated into unified model.",
		"axes", len(model.Axes), "excludes", len(model.Excludes))
	return model, nil
}

// parseFile parses a single specification file into its HCL schema form.
func (l *Loader) parseFile(path string) (*schema.SpecFile, error) {
	hclFile, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse %s: %w", path, diags)
	}

	var spec schema.SpecFile
	diags = gohcl.DecodeBody(hclFile.Body, nil, &spec)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode %s: %w", path, diags)
	}
	return &spec, nil
}
