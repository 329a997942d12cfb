package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/matrixgen/internal/config"
	"github.com/vk/matrixgen/internal/ctxlog"
	"github.com/vk/matrixgen/internal/schema"
)

// translate merges the parsed specification files into one format-agnostic
// model, evaluating every free-form body down to plain strings.
func (l *Loader) translate(ctx context.Context, files []*schema.SpecFile) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	model := &config.Model{
		Templates:        make(map[string]*config.Template),
		GlobalDefaults:   make(map[string]string),
		PlatformDefaults: make(map[string]map[string]string),
	}
	axisNames := make(map[string]bool)

	for _, file := range files {
		if file.Workflow != nil {
			if model.Workflow != nil {
				return nil, fmt.Errorf("workflow defined more than once (%q and %q)", model.Workflow.Name, file.Workflow.Name)
			}
			wf, err := l.translateWorkflow(file.Workflow)
			if err != nil {
				return nil, err
			}
			model.Workflow = wf
		}

		for _, t := range file.Templates {
			if t.Kind != config.TemplateBuild && t.Kind != config.TemplateTest {
				return nil, fmt.Errorf("template %q: unknown kind (want %q or %q)", t.Kind, config.TemplateBuild, config.TemplateTest)
			}
			if _, dup := model.Templates[t.Kind]; dup {
				return nil, fmt.Errorf("template %q defined more than once", t.Kind)
			}
			model.Templates[t.Kind] = &config.Template{
				Kind:           t.Kind,
				Ref:            t.Ref,
				RequiredInputs: t.RequiredInputs,
			}
		}

		for _, a := range file.Axes {
			if axisNames[a.Name] {
				return nil, fmt.Errorf("axis %q defined more than once", a.Name)
			}
			axisNames[a.Name] = true
			axis, err := l.translateAxis(a)
			if err != nil {
				return nil, err
			}
			model.Axes = append(model.Axes, axis)
		}

		for _, d := range file.Defaults {
			values, err := l.extractStringAttributes(d.Body)
			if err != nil {
				return nil, fmt.Errorf("defaults block: %w", err)
			}
			mergeLayer(model.GlobalDefaults, values)
		}

		for _, p := range file.Platforms {
			values, err := l.extractStringAttributes(p.Body)
			if err != nil {
				return nil, fmt.Errorf("platform %q: %w", p.Name, err)
			}
			layer, ok := model.PlatformDefaults[p.Name]
			if !ok {
				layer = make(map[string]string)
				model.PlatformDefaults[p.Name] = layer
			}
			mergeLayer(layer, values)
		}

		for _, e := range file.Excludes {
			match, err := l.extractStringAttributes(e.Body)
			if err != nil {
				return nil, fmt.Errorf("exclude block: %w", err)
			}
			model.Excludes = append(model.Excludes, &config.Exclusion{Match: match})
		}
	}

	if model.Workflow == nil {
		return nil, fmt.Errorf("specification has no workflow block")
	}
	for _, kind := range []string{config.TemplateBuild, config.TemplateTest} {
		if _, ok := model.Templates[kind]; !ok {
			return nil, fmt.Errorf("specification has no %q template block", kind)
		}
	}

	logger.Debug("Specification model assembled.", "workflow", model.Workflow.Name)
	return model, nil
}

// translateWorkflow converts the HCL workflow schema into the agnostic model.
func (l *Loader) translateWorkflow(w *schema.Workflow) (*config.Workflow, error) {
	wf := &config.Workflow{
		Name:      w.Name,
		Condition: w.Condition,
		Env:       map[string]string{},
	}
	if w.Name == "" {
		return nil, fmt.Errorf("workflow block has an empty name")
	}
	if w.Env != nil {
		env, err := l.extractStringAttributes(w.Env.Body)
		if err != nil {
			return nil, fmt.Errorf("workflow %q env: %w", w.Name, err)
		}
		wf.Env = env
	}
	if w.Trigger != nil {
		wf.Trigger = config.Trigger{
			Branches: w.Trigger.Branches,
			Tags:     w.Trigger.Tags,
			Manual:   w.Trigger.Manual,
		}
	}
	return wf, nil
}

// translateAxis converts an HCL axis schema into the agnostic model.
func (l *Loader) translateAxis(a *schema.Axis) (*config.Axis, error) {
	axis := &config.Axis{Name: a.Name}
	for _, v := range a.Values {
		value := &config.AxisValue{Name: v.Name}
		if v.Overrides != nil {
			overrides, err := l.extractStringAttributes(v.Overrides.Body)
			if err != nil {
				return nil, fmt.Errorf("axis %q value %q overrides: %w", a.Name, v.Name, err)
			}
			value.Overrides = overrides
		}
		axis.Values = append(axis.Values, value)
	}
	return axis, nil
}

// extractStringAttributes evaluates every attribute of a free-form body
// and converts the results to strings. Expressions may not reference
// variables; the model carries literal values only.
func (l *Loader) extractStringAttributes(body hcl.Body) (map[string]string, error) {
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("unexpected block content: %w", diags)
	}

	values := make(map[string]string, len(attrs))
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		val, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute %q: %w", name, diags)
		}
		strVal, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: cannot convert %s to string: %w", name, val.Type().FriendlyName(), err)
		}
		if strVal.IsNull() {
			return nil, fmt.Errorf("attribute %q: value is null", name)
		}
		values[name] = strVal.AsString()
	}
	return values, nil
}

// mergeLayer folds src into dst, later files overriding earlier ones.
func mergeLayer(dst, src map[string]string) {
	for k, v := range src {
		dst[k] = v
	}
}
