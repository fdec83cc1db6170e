package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/promptloom/promptloom/internal/testutil"
)

// execute runs the CLI with the given arguments and returns its
// combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return buf.String(), err
}

// writeFixtures writes the standard template set and returns the
// template path.
func writeFixtures(t *testing.T) string {
	t.Helper()
	return testutil.WriteStandardFixtures(t, t.TempDir())
}
