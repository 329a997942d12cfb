// Package naming derives the concurrency group key that the downstream
// executor uses to cancel superseded runs of the same logical pipeline
// instance.
package naming

import (
	"strconv"
	"strings"
)

// TriggerContext describes one pipeline trigger as seen by the
// downstream executor.
type TriggerContext struct {
	// Workflow is the static pipeline-name prefix.
	Workflow string

	// PRNumber is the pull request number, or 0 when the trigger is not
	// a pull request.
	PRNumber int

	// Ref is the branch or tag name the run targets.
	Ref string

	// HeadSHA is the head commit identifier.
	HeadSHA string

	// BranchPush is true for a direct push to a branch (not a pull
	// request and not a tag).
	BranchPush bool

	// ManualDispatch is true when the run was triggered by hand rather
	// than automatically.
	ManualDispatch bool
}

// Key composes the concurrency group key for a trigger context. The key
// is stable across reruns of the same logical pipeline instance and
// distinct across different instances:
//
//   - the workflow name prefixes every key;
//   - the pull request number identifies PR instances, the ref
//     identifies everything else;
//   - the head commit is appended only for direct branch pushes, so
//     consecutive pushes to the same branch never cancel each other;
//   - the trigger type is the final discriminator, so a manual rerun
//     never collides with and cancels an automatic run on the same ref.
func Key(tc TriggerContext) string {
	parts := []string{tc.Workflow}

	if tc.PRNumber > 0 {
		parts = append(parts, strconv.Itoa(tc.PRNumber))
	} else {
		parts = append(parts, tc.Ref)
	}

	if tc.BranchPush {
		parts = append(parts, tc.HeadSHA)
	}

	parts = append(parts, strconv.FormatBool(tc.ManualDispatch))
	return strings.Join(parts, "-")
}

// Expression renders the executor-side expression equivalent to Key for
// the named workflow. The generator embeds it verbatim in the emitted
// document; the executor evaluates it per trigger.
func Expression(workflow string) string {
	return workflow +
		"-${{ github.event.pull_request.number || github.ref_name }}" +
		"-${{ github.ref_type == 'branch' && github.sha }}" +
		"-${{ github.event_name == 'workflow_dispatch' }}"
}
