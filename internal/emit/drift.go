package emit

import (
	"bytes"
	"fmt"
	"os"
)

// DriftError reports that a freshly generated document differs from the
// committed copy at Path. Line is the first differing line (1-based).
type DriftError struct {
	Path string
	Line int
}

// Error implements the error interface.
func (e *DriftError) Error() string {
	return fmt.Sprintf("%s is stale: differs from generated output at line %d (regenerate and commit)", e.Path, e.Line)
}

// Check compares the generated document against the committed copy at
// path and returns a DriftError on any difference. A missing committed
// copy counts as drift at line 1.
func Check(path string, generated []byte) error {
	committed, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &DriftError{Path: path, Line: 1}
	}
	if err != nil {
		return fmt.Errorf("read committed document: %w", err)
	}

	if bytes.Equal(committed, generated) {
		return nil
	}
	return &DriftError{Path: path, Line: firstDiffLine(committed, generated)}
}

// firstDiffLine returns the 1-based line number of the first difference
// between the two documents.
func firstDiffLine(a, b []byte) int {
	aLines := bytes.Split(a, []byte("\n"))
	bLines := bytes.Split(b, []byte("\n"))
	n := len(aLines)
	if len(bLines) < n {
		n = len(bLines)
	}
	for i := 0; i < n; i++ {
		if !bytes.Equal(aLines[i], bLines[i]) {
			return i + 1
		}
	}
	return n + 1
}
