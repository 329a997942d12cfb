package matrix

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/matrixgen/internal/config"
)

func testAxes() []*config.Axis {
	return []*config.Axis{
		{
			Name: "package_type",
			Values: []*config.AxisValue{
				{Name: "manywheel"},
				{Name: "libtorch"},
			},
		},
		{
			Name: "python_version",
			Values: []*config.AxisValue{
				{Name: "3.8"},
				{Name: "3.11"},
			},
		},
		{
			Name: "accelerator",
			Values: []*config.AxisValue{
				{Name: "cpu", Overrides: map[string]string{"gpu_arch_type": "cpu"}},
				{Name: "cu118", Overrides: map[string]string{"gpu_arch_type": "cuda"}},
				{Name: "cu121", Overrides: map[string]string{"gpu_arch_type": "cuda"}},
			},
		},
	}
}

func TestExpand_CartesianProduct(t *testing.T) {
	t.Parallel()

	// --- Act ---
	cells, err := Expand(context.Background(), testAxes(), nil)

	// --- Assert ---
	require.NoError(t, err)
	assert.Len(t, cells, 2*2*3, "expansion without exclusions must yield the full cartesian product")

	// First axis varies slowest, last axis fastest.
	assert.Equal(t, "package_type=manywheel python_version=3.8 accelerator=cpu", cells[0].String())
	assert.Equal(t, "package_type=manywheel python_version=3.8 accelerator=cu118", cells[1].String())
	assert.Equal(t, "package_type=libtorch python_version=3.11 accelerator=cu121", cells[len(cells)-1].String())
}

func TestExpand_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := Expand(context.Background(), testAxes(), nil)
	require.NoError(t, err)
	second, err := Expand(context.Background(), testAxes(), nil)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].String(), second[i].String())
	}
}

func TestExpand_Exclusions(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	excludes := []*config.Exclusion{
		{Match: map[string]string{"package_type": "libtorch", "python_version": "3.8"}},
	}

	// --- Act ---
	cells, err := Expand(context.Background(), testAxes(), excludes)

	// --- Assert ---
	require.NoError(t, err)
	assert.Len(t, cells, 12-3, "exactly the matching combinations are dropped")
	for _, cell := range cells {
		if cell.Value("package_type") == "libtorch" {
			assert.NotEqual(t, "3.8", cell.Value("python_version"))
		}
	}
}

func TestExpand_ErrorCases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		axes     []*config.Axis
		excludes []*config.Exclusion
		want     string
	}{
		{
			name: "no axes",
			axes: nil,
			want: "no axes defined",
		},
		{
			name: "duplicate axis",
			axes: []*config.Axis{
				{Name: "a", Values: []*config.AxisValue{{Name: "x"}}},
				{Name: "a", Values: []*config.AxisValue{{Name: "y"}}},
			},
			want: `duplicate axis "a"`,
		},
		{
			name: "axis without values",
			axes: []*config.Axis{{Name: "a"}},
			want: `axis "a" has no values`,
		},
		{
			name: "duplicate value",
			axes: []*config.Axis{
				{Name: "a", Values: []*config.AxisValue{{Name: "x"}, {Name: "x"}}},
			},
			want: `lists value "x" twice`,
		},
		{
			name: "exclusion references unknown axis",
			axes: []*config.Axis{
				{Name: "a", Values: []*config.AxisValue{{Name: "x"}}},
			},
			excludes: []*config.Exclusion{{Match: map[string]string{"b": "x"}}},
			want:     `unknown axis "b"`,
		},
		{
			name: "exclusion references unknown value",
			axes: []*config.Axis{
				{Name: "a", Values: []*config.AxisValue{{Name: "x"}}},
			},
			excludes: []*config.Exclusion{{Match: map[string]string{"a": "y"}}},
			want:     `unknown value "y" on axis "a"`,
		},
		{
			name: "empty exclusion",
			axes: []*config.Axis{
				{Name: "a", Values: []*config.AxisValue{{Name: "x"}}},
			},
			excludes: []*config.Exclusion{{}},
			want:     "exclusion rule with no axis conditions",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := Expand(context.Background(), tc.axes, tc.excludes)

			require.Error(t, err)
			var matrixErr *MatrixError
			require.ErrorAs(t, err, &matrixErr)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestCell_Value(t *testing.T) {
	t.Parallel()

	cell := &Cell{Selections: []Selection{
		{Axis: "a", Value: "x"},
		{Axis: "b", Value: "y"},
	}}

	assert.Equal(t, "x", cell.Value("a"))
	assert.Equal(t, "y", cell.Value("b"))
	assert.Equal(t, "", cell.Value("missing"))
}
