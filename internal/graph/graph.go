package graph

import (
	"fmt"

	"github.com/vk/matrixgen/internal/config"
	"github.com/vk/matrixgen/internal/resolve"
)

// Kind distinguishes the two job roles in the pipeline.
type Kind string

// Job kinds.
const (
	KindBuild Kind = "build"
	KindTest  Kind = "test"
)

// Job is one node of the pipeline graph. Dependencies are expressed as
// job names, not object references, so the graph stays an arena that can
// be validated with a simple traversal.
type Job struct {
	Name string
	Kind Kind

	// Condition is the opaque guard expression copied verbatim from the
	// workflow definition. Sibling build and test jobs never diverge on it.
	Condition string

	// Needs lists upstream job names. Empty for build jobs; exactly one
	// entry, the sibling build job, for test jobs.
	Needs []string

	// Uses references the job template.
	Uses string

	// With carries the cell's resolved configuration as named inputs.
	With resolve.Config

	// RunsOn is the runner selector. Set for test jobs only.
	RunsOn string
}

// Pipeline is the full job graph plus pipeline-wide metadata. Jobs are
// stored in an arena keyed by name, with insertion order preserved for
// deterministic emission.
type Pipeline struct {
	Name             string
	Trigger          config.Trigger
	Env              map[string]string
	ConcurrencyGroup string

	jobs  map[string]*Job
	order []string
}

// NewPipeline returns an empty pipeline with the given metadata.
func NewPipeline(name string, trigger config.Trigger, env map[string]string, concurrencyGroup string) *Pipeline {
	return &Pipeline{
		Name:             name,
		Trigger:          trigger,
		Env:              env,
		ConcurrencyGroup: concurrencyGroup,
		jobs:             make(map[string]*Job),
	}
}

// Add appends a job to the pipeline. Adding a second job with the same
// name is an error; identity collisions are caught upstream by the
// synthesizer, so a duplicate here indicates a bug.
func (p *Pipeline) Add(job *Job) error {
	if _, ok := p.jobs[job.Name]; ok {
		return fmt.Errorf("job %q already present in pipeline", job.Name)
	}
	p.jobs[job.Name] = job
	p.order = append(p.order, job.Name)
	return nil
}

// Jobs returns the pipeline's jobs in insertion order.
func (p *Pipeline) Jobs() []*Job {
	jobs := make([]*Job, 0, len(p.order))
	for _, name := range p.order {
		jobs = append(jobs, p.jobs[name])
	}
	return jobs
}

// Lookup returns the named job if present.
func (p *Pipeline) Lookup(name string) (*Job, bool) {
	job, ok := p.jobs[name]
	return job, ok
}

// Len returns the number of jobs in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.order)
}

// Validate checks the structural invariants of the job graph: every
// dependency names an existing job, every test job depends on exactly
// its sibling build job, and the dependency relation is acyclic.
func (p *Pipeline) Validate() error {
	for _, name := range p.order {
		job := p.jobs[name]
		for _, dep := range job.Needs {
			upstream, ok := p.jobs[dep]
			if !ok {
				return fmt.Errorf("job %q depends on unknown job %q", job.Name, dep)
			}
			if job.Kind == KindTest && upstream.Kind != KindBuild {
				return fmt.Errorf("test job %q depends on non-build job %q", job.Name, dep)
			}
		}
		switch job.Kind {
		case KindBuild:
			if len(job.Needs) != 0 {
				return fmt.Errorf("build job %q must not have dependencies, has %d", job.Name, len(job.Needs))
			}
		case KindTest:
			if len(job.Needs) != 1 {
				return fmt.Errorf("test job %q must depend on exactly one build job, has %d", job.Name, len(job.Needs))
			}
		default:
			return fmt.Errorf("job %q has unknown kind %q", job.Name, job.Kind)
		}
	}

	return p.detectCycles()
}

// detectCycles checks for circular dependencies in the graph using DFS.
func (p *Pipeline) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)

	var visit func(job *Job) error
	visit = func(job *Job) error {
		visiting[job.Name] = true
		for _, dep := range job.Needs {
			if visiting[dep] {
				return fmt.Errorf("cycle detected involving %q", dep)
			}
			if !visited[dep] {
				if err := visit(p.jobs[dep]); err != nil {
					return err
				}
			}
		}
		delete(visiting, job.Name)
		visited[job.Name] = true
		return nil
	}

	for _, name := range p.order {
		if !visited[name] {
			if err := visit(p.jobs[name]); err != nil {
				return err
			}
		}
	}
	return nil
}
