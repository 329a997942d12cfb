package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/matrixgen/internal/config"
)

func newTestPipeline() *Pipeline {
	return NewPipeline("wf", config.Trigger{}, nil, "wf-group")
}

func buildJob(name string) *Job {
	return &Job{Name: name, Kind: KindBuild, Needs: []string{}}
}

func testJob(name, needs string) *Job {
	return &Job{Name: name, Kind: KindTest, Needs: []string{needs}}
}

func TestPipeline_AddAndOrder(t *testing.T) {
	t.Parallel()

	p := newTestPipeline()

	require.NoError(t, p.Add(buildJob("a-build")))
	require.NoError(t, p.Add(testJob("a-test", "a-build")))
	require.NoError(t, p.Add(buildJob("b-build")))

	jobs := p.Jobs()
	require.Len(t, jobs, 3)
	assert.Equal(t, "a-build", jobs[0].Name)
	assert.Equal(t, "a-test", jobs[1].Name)
	assert.Equal(t, "b-build", jobs[2].Name)

	err := p.Add(buildJob("a-build"))
	require.Error(t, err, "duplicate job names must be rejected")
	assert.Contains(t, err.Error(), "already present")
	assert.Equal(t, 3, p.Len())
}

func TestPipeline_Validate(t *testing.T) {
	t.Parallel()

	t.Run("valid graph", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline()
		require.NoError(t, p.Add(buildJob("a-build")))
		require.NoError(t, p.Add(testJob("a-test", "a-build")))

		require.NoError(t, p.Validate())
	})

	t.Run("dangling dependency", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline()
		require.NoError(t, p.Add(testJob("a-test", "a-build")))

		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `depends on unknown job "a-build"`)
	})

	t.Run("test job with two dependencies", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline()
		require.NoError(t, p.Add(buildJob("a-build")))
		require.NoError(t, p.Add(buildJob("b-build")))
		job := &Job{Name: "a-test", Kind: KindTest, Needs: []string{"a-build", "b-build"}}
		require.NoError(t, p.Add(job))

		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one build job")
	})

	t.Run("build job with dependencies", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline()
		require.NoError(t, p.Add(buildJob("a-build")))
		job := &Job{Name: "b-build", Kind: KindBuild, Needs: []string{"a-build"}}
		require.NoError(t, p.Add(job))

		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must not have dependencies")
	})

	t.Run("test depending on test", func(t *testing.T) {
		t.Parallel()

		p := newTestPipeline()
		require.NoError(t, p.Add(buildJob("a-build")))
		require.NoError(t, p.Add(testJob("a-test", "a-build")))
		require.NoError(t, p.Add(testJob("b-test", "a-test")))

		err := p.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-build job")
	})
}

func TestPipeline_CycleDetection(t *testing.T) {
	t.Parallel()

	// Validate's per-kind checks already rule cycles out for well-formed
	// build/test pairs, so exercise the traversal directly with a
	// malformed arena.
	p := newTestPipeline()
	require.NoError(t, p.Add(&Job{Name: "a", Kind: KindBuild, Needs: []string{}}))
	p.jobs["a"].Needs = []string{"b"}
	require.NoError(t, p.Add(&Job{Name: "b", Kind: KindBuild, Needs: []string{"a"}}))

	err := p.detectCycles()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle detected")
}
