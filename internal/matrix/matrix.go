// Package matrix expands a set of variation axes into the full list of
// concrete build configurations (cells), applying exclusion rules.
package matrix

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/matrixgen/internal/config"
	"github.com/vk/matrixgen/internal/ctxlog"
)

// MatrixError reports a malformed axis or exclusion definition. It is
// fatal: generation aborts before producing any output.
type MatrixError struct {
	Detail string
}

// Error implements the error interface.
func (e *MatrixError) Error() string {
	return "invalid matrix definition: " + e.Detail
}

// Selection records the value a cell picked on one axis, together with
// the configuration overrides that value carries.
type Selection struct {
	Axis      string
	Value     string
	Overrides map[string]string
}

// Cell is one concrete combination of a value from every axis. Selections
// are ordered by axis declaration order.
type Cell struct {
	Selections []Selection
}

// Value returns the cell's selected value on the named axis, or the empty
// string if the axis is unknown.
func (c *Cell) Value(axis string) string {
	for _, s := range c.Selections {
		if s.Axis == axis {
			return s.Value
		}
	}
	return ""
}

// String renders the cell's coordinates for diagnostics, e.g.
// "package_type=manywheel python_version=3.8 accelerator=cu118".
func (c *Cell) String() string {
	var sb strings.Builder
	for i, s := range c.Selections {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.Axis)
		sb.WriteByte('=')
		sb.WriteString(s.Value)
	}
	return sb.String()
}

// Expand produces the full cartesian product of the axis values, in axis
// declaration order then value declaration order, and drops every cell
// matched by an exclusion rule. The result is deterministic: identical
// inputs always yield the same cells in the same order.
func Expand(ctx context.Context, axes []*config.Axis, excludes []*config.Exclusion) ([]*Cell, error) {
	logger := ctxlog.FromContext(ctx)

	if err := validate(axes, excludes); err != nil {
		return nil, err
	}

	cells := []*Cell{{}}
	for _, axis := range axes {
		next := make([]*Cell, 0, len(cells)*len(axis.Values))
		for _, cell := range cells {
			for _, value := range axis.Values {
				grown := &Cell{Selections: make([]Selection, len(cell.Selections), len(cell.Selections)+1)}
				copy(grown.Selections, cell.Selections)
				grown.Selections = append(grown.Selections, Selection{
					Axis:      axis.Name,
					Value:     value.Name,
					Overrides: value.Overrides,
				})
				next = append(next, grown)
			}
		}
		cells = next
	}

	kept := cells[:0]
	for _, cell := range cells {
		if excluded(cell, excludes) {
			logger.Debug("Cell dropped by exclusion rule.", "cell", cell.String())
			continue
		}
		kept = append(kept, cell)
	}

	logger.Debug("Matrix expansion complete.", "cells", len(kept), "excluded", len(cells)-len(kept))
	return kept, nil
}

// excluded reports whether any exclusion rule matches the cell. A rule
// matches when every axis it names carries the listed value.
func excluded(cell *Cell, excludes []*config.Exclusion) bool {
	for _, ex := range excludes {
		match := true
		for axis, value := range ex.Match {
			if cell.Value(axis) != value {
				match = false
				break
			}
		}
		if match && len(ex.Match) > 0 {
			return true
		}
	}
	return false
}

// validate checks the structural integrity of the axis and exclusion
// definitions before any expansion work happens.
func validate(axes []*config.Axis, excludes []*config.Exclusion) error {
	if len(axes) == 0 {
		return &MatrixError{Detail: "no axes defined"}
	}

	values := make(map[string]map[string]bool, len(axes))
	for _, axis := range axes {
		if axis.Name == "" {
			return &MatrixError{Detail: "axis with empty name"}
		}
		if _, dup := values[axis.Name]; dup {
			return &MatrixError{Detail: fmt.Sprintf("duplicate axis %q", axis.Name)}
		}
		if len(axis.Values) == 0 {
			return &MatrixError{Detail: fmt.Sprintf("axis %q has no values", axis.Name)}
		}
		seen := make(map[string]bool, len(axis.Values))
		for _, v := range axis.Values {
			if v.Name == "" {
				return &MatrixError{Detail: fmt.Sprintf("axis %q has a value with an empty name", axis.Name)}
			}
			if seen[v.Name] {
				return &MatrixError{Detail: fmt.Sprintf("axis %q lists value %q twice", axis.Name, v.Name)}
			}
			seen[v.Name] = true
		}
		values[axis.Name] = seen
	}

	for _, ex := range excludes {
		if len(ex.Match) == 0 {
			return &MatrixError{Detail: "exclusion rule with no axis conditions"}
		}
		for axis, value := range ex.Match {
			axisValues, ok := values[axis]
			if !ok {
				return &MatrixError{Detail: fmt.Sprintf("exclusion rule references unknown axis %q", axis)}
			}
			if !axisValues[value] {
				return &MatrixError{Detail: fmt.Sprintf("exclusion rule references unknown value %q on axis %q", value, axis)}
			}
		}
	}

	return nil
}
