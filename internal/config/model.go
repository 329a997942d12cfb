package config

import "sort"

// Model is the unified, format-agnostic representation of one matrix
// specification: the workflow metadata, the job templates, the variation
// axes, the layered defaults, and the exclusion rules. All values are
// fully evaluated strings; nothing format-specific survives loading.
type Model struct {
	Workflow  *Workflow
	Templates map[string]*Template

	// Axes are kept in declaration order. Expansion order, and therefore
	// the order of jobs in the emitted document, follows this ordering.
	Axes []*Axis

	// GlobalDefaults is the lowest-precedence configuration layer.
	GlobalDefaults map[string]string

	// PlatformDefaults holds per-platform configuration layers keyed by
	// the accelerator class (e.g. "cuda", "rocm", "cpu").
	PlatformDefaults map[string]map[string]string

	Excludes []*Exclusion
}

// Workflow carries the pipeline-wide metadata of the emitted document.
type Workflow struct {
	Name string

	// Condition is an opaque boolean expression evaluated by the
	// downstream executor. It is copied verbatim onto every job and is
	// never interpreted by the generator.
	Condition string

	// Env is the shared environment mapping emitted at document level.
	Env map[string]string

	Trigger Trigger
}

// Trigger describes what starts the pipeline on the downstream executor.
type Trigger struct {
	Branches []string
	Tags     []string
	Manual   bool
}

// Template references a parameterized job template and names the
// configuration keys it cannot run without.
type Template struct {
	// Kind is either "build" or "test".
	Kind string

	// Ref is the template reference string emitted as the job's `uses`.
	Ref string

	// RequiredInputs lists configuration keys that must be present in a
	// cell's resolved configuration. A key still unset after all layers
	// have been applied is a fatal resolution error.
	RequiredInputs []string
}

// Template kinds.
const (
	TemplateBuild = "build"
	TemplateTest  = "test"
)

// RequiredKeys returns the union of every template's required inputs,
// deduplicated and sorted.
func (m *Model) RequiredKeys() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, t := range m.Templates {
		for _, key := range t.RequiredInputs {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	sort.Strings(keys)
	return keys
}

// Axis is one dimension of build variation with an ordered set of values.
type Axis struct {
	Name   string
	Values []*AxisValue
}

// AxisValue is one discrete value of an axis, optionally carrying
// configuration overrides applied to every cell that selects it.
type AxisValue struct {
	Name      string
	Overrides map[string]string
}

// Exclusion drops every cell whose coordinates match all listed pairs.
type Exclusion struct {
	// Match maps axis name to the value that must be selected for the
	// exclusion to apply.
	Match map[string]string
}
