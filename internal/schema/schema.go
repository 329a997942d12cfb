package schema

import (
	"github.com/hashicorp/hcl/v2"
)

// --- Primary Specification Structures ---

// Body wraps a free-form attribute block (env, defaults, overrides) whose
// keys are not known ahead of time.
type Body struct {
	Body hcl.Body `hcl:",remain"`
}

// Trigger represents the `trigger` block of a workflow: the branch and
// tag patterns that start the pipeline, and whether it can be dispatched
// by hand.
type Trigger struct {
	Branches []string `hcl:"branches,optional"`
	Tags     []string `hcl:"tags,optional"`
	Manual   bool     `hcl:"manual,optional"`
}

// Workflow represents the `workflow` block: pipeline-wide metadata of the
// emitted document.
type Workflow struct {
	Name      string   `hcl:"name,label"`
	Condition string   `hcl:"condition,optional"`
	Env       *Body    `hcl:"env,block"`
	Trigger   *Trigger `hcl:"trigger,block"`
}

// Template represents a `template` block referencing a parameterized job
// template and the configuration keys it requires.
type Template struct {
	Kind           string   `hcl:"kind,label"`
	Ref            string   `hcl:"ref"`
	RequiredInputs []string `hcl:"required_inputs,optional"`
}

// Value represents one `value` block of an axis, optionally carrying
// configuration overrides for every cell selecting it.
type Value struct {
	Name      string `hcl:"name,label"`
	Overrides *Body  `hcl:"overrides,block"`
}

// Axis represents an `axis` block: one dimension of build variation with
// an ordered set of discrete values.
type Axis struct {
	Name   string   `hcl:"name,label"`
	Values []*Value `hcl:"value,block"`
}

// Platform represents a `platform` block: the defaults layer applied to
// cells of the named accelerator class.
type Platform struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Exclude represents an `exclude` block. Its attributes pair axis names
// with the values that, selected together, drop a cell.
type Exclude struct {
	Body hcl.Body `hcl:",remain"`
}

// SpecFile represents the top-level structure of one matrix specification
// file. A specification may be split across several files; blocks from
// all of them merge into a single model.
type SpecFile struct {
	Workflow  *Workflow   `hcl:"workflow,block"`
	Templates []*Template `hcl:"template,block"`
	Axes      []*Axis     `hcl:"axis,block"`
	Defaults  []*Body     `hcl:"defaults,block"`
	Platforms []*Platform `hcl:"platform,block"`
	Excludes  []*Exclude  `hcl:"exclude,block"`
}
