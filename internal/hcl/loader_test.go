package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSpec writes the given files into a fresh temp dir and returns it.
func writeSpec(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return dir
}

const minimalSpec = `
workflow "wf" {
  condition = "github.repository_owner == 'pytorch'"

  env {
    AWS_DEFAULT_REGION = "us-east-1"
  }

  trigger {
    branches = ["nightly"]
    manual   = true
  }
}

template "build" {
  ref             = "./build.yml"
  required_inputs = ["docker_image"]
}

template "test" {
  ref = "./test.yml"
}

axis "python_version" {
  value "3.8" {}
  value "3.11" {}
}

axis "accelerator" {
  value "cu118" {
    overrides {
      gpu_arch_type    = "cuda"
      gpu_arch_version = 11.8
    }
  }
}

defaults {
  channel = "nightly"
}

platform "cuda" {
  docker_image = "cuda-builder"
}

exclude {
  python_version = "3.8"
  accelerator    = "cu118"
}
`

func TestLoader_FullSpec(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dir := writeSpec(t, map[string]string{"matrix.hcl": minimalSpec})

	// --- Act ---
	model, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)

	require.NotNil(t, model.Workflow)
	assert.Equal(t, "wf", model.Workflow.Name)
	assert.Equal(t, "github.repository_owner == 'pytorch'", model.Workflow.Condition)
	assert.Equal(t, map[string]string{"AWS_DEFAULT_REGION": "us-east-1"}, model.Workflow.Env)
	assert.Equal(t, []string{"nightly"}, model.Workflow.Trigger.Branches)
	assert.True(t, model.Workflow.Trigger.Manual)

	require.Len(t, model.Templates, 2)
	assert.Equal(t, "./build.yml", model.Templates["build"].Ref)
	assert.Equal(t, []string{"docker_image"}, model.Templates["build"].RequiredInputs)

	require.Len(t, model.Axes, 2)
	assert.Equal(t, "python_version", model.Axes[0].Name)
	require.Len(t, model.Axes[0].Values, 2)
	assert.Equal(t, "3.8", model.Axes[0].Values[0].Name)

	// Non-string literals are converted to their string form.
	cu118 := model.Axes[1].Values[0]
	assert.Equal(t, "cuda", cu118.Overrides["gpu_arch_type"])
	assert.Equal(t, "11.8", cu118.Overrides["gpu_arch_version"])

	assert.Equal(t, "nightly", model.GlobalDefaults["channel"])
	assert.Equal(t, "cuda-builder", model.PlatformDefaults["cuda"]["docker_image"])

	require.Len(t, model.Excludes, 1)
	assert.Equal(t, map[string]string{"python_version": "3.8", "accelerator": "cu118"}, model.Excludes[0].Match)
}

func TestLoader_SpecSplitAcrossFiles(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// Discovery is sorted by file name, so 20-axes.hcl merges after
	// 10-workflow.hcl regardless of file system order.
	dir := writeSpec(t, map[string]string{
		"10-workflow.hcl": `
workflow "wf" {}
template "build" { ref = "./build.yml" }
template "test"  { ref = "./test.yml" }
`,
		"20-axes.hcl": `
axis "python_version" {
  value "3.8" {}
}
defaults {
  channel = "nightly"
}
`,
	})

	// --- Act ---
	model, err := NewLoader().Load(context.Background(), dir)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, "wf", model.Workflow.Name)
	require.Len(t, model.Axes, 1)
	assert.Equal(t, "nightly", model.GlobalDefaults["channel"])
}

func TestLoader_ErrorCases(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "syntax error",
			files: map[string]string{"bad.hcl": `workflow "wf" {`},
			want:  "failed to parse",
		},
		{
			name: "missing workflow",
			files: map[string]string{"spec.hcl": `
template "build" { ref = "./b.yml" }
template "test"  { ref = "./t.yml" }
axis "a" {
  value "x" {}
}
`},
			want: "no workflow block",
		},
		{
			name: "missing test template",
			files: map[string]string{"spec.hcl": `
workflow "wf" {}
template "build" { ref = "./b.yml" }
`},
			want: `no "test" template`,
		},
		{
			name: "unknown template kind",
			files: map[string]string{"spec.hcl": `
workflow "wf" {}
template "deploy" { ref = "./d.yml" }
`},
			want: "unknown kind",
		},
		{
			name: "duplicate axis across files",
			files: map[string]string{
				"a.hcl": `
workflow "wf" {}
template "build" { ref = "./b.yml" }
template "test"  { ref = "./t.yml" }
axis "python_version" {
  value "3.8" {}
}
`,
				"b.hcl": `axis "python_version" {
  value "3.11" {}
}`,
			},
			want: `axis "python_version" defined more than once`,
		},
		{
			name: "duplicate workflow",
			files: map[string]string{
				"a.hcl": `workflow "one" {}`,
				"b.hcl": `workflow "two" {}`,
			},
			want: "workflow defined more than once",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			dir := writeSpec(t, tc.files)

			_, err := NewLoader().Load(context.Background(), dir)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoader_NoSpecFiles(t *testing.T) {
	t.Parallel()

	_, err := NewLoader().Load(context.Background(), t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .hcl specification files")
}
