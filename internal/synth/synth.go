// Package synth turns resolved matrix cells into pairs of build and test
// jobs wired together with a dependency edge.
package synth

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/vk/matrixgen/internal/config"
	"github.com/vk/matrixgen/internal/ctxlog"
	"github.com/vk/matrixgen/internal/graph"
	"github.com/vk/matrixgen/internal/matrix"
	"github.com/vk/matrixgen/internal/resolve"
)

// Job name suffixes per kind.
const (
	buildSuffix = "-build"
	testSuffix  = "-test"
)

// axisPython names the axis whose values are Python versions. Its values
// get the conventional "py<major>_<minor>" treatment in job names.
const axisPython = "python_version"

// Runner selectors by accelerator class. A resolved "runs_on" key
// overrides the mapping.
const (
	keyRunsOn  = "runs_on"
	runnerCPU  = "linux.4xlarge"
	runnerCUDA = "linux.4xlarge.nvidia.gpu"
	runnerROCm = "linux.rocm.gpu.2"
)

// NamingCollisionError reports two or more cells resolving to the same
// job identity. It is fatal and lists every colliding cell.
type NamingCollisionError struct {
	Name  string
	Cells []string
}

// Error implements the error interface.
func (e *NamingCollisionError) Error() string {
	return fmt.Sprintf("job identity %q derived from multiple cells: %s",
		e.Name, strings.Join(e.Cells, "; "))
}

// Inputs carries the per-pipeline parameters shared by every synthesized
// job pair.
type Inputs struct {
	BuildTemplate *config.Template
	TestTemplate  *config.Template

	// Condition is the opaque guard expression attached identically to
	// both jobs of every pair.
	Condition string
}

// Synthesize produces the build and test job for one cell. It is a pure
// function of its inputs: no state, no side effects, so regeneration is
// idempotent by construction.
func Synthesize(cell *matrix.Cell, cfg resolve.Config, in Inputs) (*graph.Job, *graph.Job) {
	base := BaseName(cell)

	build := &graph.Job{
		Name:      base + buildSuffix,
		Kind:      graph.KindBuild,
		Condition: in.Condition,
		Needs:     []string{},
		Uses:      in.BuildTemplate.Ref,
		With:      cfg,
	}

	test := &graph.Job{
		Name:      base + testSuffix,
		Kind:      graph.KindTest,
		Condition: in.Condition,
		Needs:     []string{build.Name},
		Uses:      in.TestTemplate.Ref,
		With:      cfg,
		RunsOn:    runnerSelector(cfg),
	}

	return build, test
}

// Plan synthesizes jobs for every cell in order, pairing each resolved
// configuration with its cell, and fails if two cells share a job
// identity. The returned slice interleaves each build job with its
// sibling test job, which is the order they are emitted in.
func Plan(ctx context.Context, cells []*matrix.Cell, configs []resolve.Config, in Inputs) ([]*graph.Job, error) {
	logger := ctxlog.FromContext(ctx)

	if len(cells) != len(configs) {
		return nil, fmt.Errorf("cell/config count mismatch: %d cells, %d configs", len(cells), len(configs))
	}

	byBase := make(map[string][]string, len(cells))
	for _, cell := range cells {
		base := BaseName(cell)
		byBase[base] = append(byBase[base], cell.String())
	}
	bases := make([]string, 0, len(byBase))
	for base := range byBase {
		bases = append(bases, base)
	}
	sort.Strings(bases)
	for _, base := range bases {
		if colliding := byBase[base]; len(colliding) > 1 {
			return nil, &NamingCollisionError{Name: base, Cells: colliding}
		}
	}

	jobs := make([]*graph.Job, 0, len(cells)*2)
	for i, cell := range cells {
		build, test := Synthesize(cell, configs[i], in)
		jobs = append(jobs, build, test)
		logger.Debug("Job pair synthesized.", "build", build.Name, "test", test.Name)
	}
	return jobs, nil
}

// BaseName derives the shared identity prefix of a cell's job pair from
// its axis values in declaration order, joined by "-". Python versions
// are truncated to major.minor and rendered as "py<major>_<minor>";
// every other value has dots replaced so the name stays a valid job key.
func BaseName(cell *matrix.Cell) string {
	parts := make([]string, 0, len(cell.Selections))
	for _, s := range cell.Selections {
		if s.Axis == axisPython {
			parts = append(parts, "py"+sanitize(truncateVersion(s.Value)))
			continue
		}
		parts = append(parts, sanitize(s.Value))
	}
	return strings.Join(parts, "-")
}

// truncateVersion reduces a version string to its major.minor prefix.
func truncateVersion(v string) string {
	segments := strings.Split(v, ".")
	if len(segments) <= 2 {
		return v
	}
	return strings.Join(segments[:2], ".")
}

// sanitize replaces characters that are not valid in a job identity.
func sanitize(v string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, v)
}

// runnerSelector picks the machine selector for a test job: a generic
// large runner for CPU-class cells, a capability-tagged runner for
// accelerator-class cells. A resolved runs_on key wins outright.
func runnerSelector(cfg resolve.Config) string {
	if v, ok := cfg[keyRunsOn]; ok && v != "" {
		return v
	}
	switch cfg[resolve.KeyGPUArchType] {
	case "cuda":
		return runnerCUDA
	case "rocm":
		return runnerROCm
	default:
		return runnerCPU
	}
}
