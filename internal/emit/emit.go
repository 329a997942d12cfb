// Package emit serializes a pipeline graph into the workflow document
// consumed by the downstream executor, verifies a checked-in copy for
// drift, and writes updates atomically.
package emit

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/vk/matrixgen/internal/graph"
)

// header marks the document as generated so reviewers know to edit the
// matrix specification instead.
const header = "# Generated file. Do not edit by hand; change the matrix specification instead.\n"

// Emit serializes the pipeline into its document form. The output is
// byte-stable: field order is fixed, map keys are sorted, and jobs appear
// in generation order, so identical graphs always serialize identically
// and regeneration can be verified by a plain byte comparison.
func Emit(p *graph.Pipeline) ([]byte, error) {
	root := mapping(
		scalar("name"), scalar(p.Name),
		scalar("on"), triggerNode(p),
		scalar("concurrency"), mapping(
			scalar("group"), scalar(p.ConcurrencyGroup),
			scalar("cancel-in-progress"), boolScalar(true),
		),
	)

	if len(p.Env) > 0 {
		root.Content = append(root.Content, scalar("env"), stringMap(p.Env))
	}

	jobs := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, job := range p.Jobs() {
		jobs.Content = append(jobs.Content, scalar(job.Name), jobNode(job))
	}
	root.Content = append(root.Content, scalar("jobs"), jobs)

	var buf bytes.Buffer
	buf.WriteString(header)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode workflow document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalize workflow document: %w", err)
	}
	return buf.Bytes(), nil
}

// triggerNode renders the pipeline's trigger rules.
func triggerNode(p *graph.Pipeline) *yaml.Node {
	push := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if len(p.Trigger.Branches) > 0 {
		push.Content = append(push.Content, scalar("branches"), stringSeq(p.Trigger.Branches))
	}
	if len(p.Trigger.Tags) > 0 {
		push.Content = append(push.Content, scalar("tags"), stringSeq(p.Trigger.Tags))
	}

	on := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if len(push.Content) > 0 {
		on.Content = append(on.Content, scalar("push"), push)
	}
	if p.Trigger.Manual {
		empty := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Style: yaml.FlowStyle}
		on.Content = append(on.Content, scalar("workflow_dispatch"), empty)
	}
	return on
}

// jobNode renders one job entry with a fixed field order: condition,
// runner selector, dependencies, template reference, named inputs.
func jobNode(job *graph.Job) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}

	if job.Condition != "" {
		node.Content = append(node.Content, scalar("if"), scalar(job.Condition))
	}
	if job.RunsOn != "" {
		node.Content = append(node.Content, scalar("runs-on"), scalar(job.RunsOn))
	}

	needs := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	if len(job.Needs) == 0 {
		needs.Style = yaml.FlowStyle
	}
	for _, dep := range job.Needs {
		needs.Content = append(needs.Content, scalar(dep))
	}
	node.Content = append(node.Content,
		scalar("needs"), needs,
		scalar("uses"), scalar(job.Uses),
	)

	with := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, key := range job.With.SortedKeys() {
		with.Content = append(with.Content, scalar(key), scalar(job.With[key]))
	}
	node.Content = append(node.Content, scalar("with"), with)

	return node
}

// stringMap renders a map with sorted keys.
func stringMap(m map[string]string) *yaml.Node {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, k := range keys {
		node.Content = append(node.Content, scalar(k), scalar(m[k]))
	}
	return node
}

func stringSeq(values []string) *yaml.Node {
	node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range values {
		node.Content = append(node.Content, scalar(v))
	}
	return node
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func boolScalar(v bool) *yaml.Node {
	value := "false"
	if v {
		value = "true"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: value}
}

func mapping(pairs ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: pairs}
}
