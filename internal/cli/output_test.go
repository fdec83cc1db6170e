package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitErrorCodes(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(WrapExitError(ExitFailure, "run failed", errors.New("boom"))))

	// Non-ExitError values default to a generic failure.
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	// Wrapped chains still resolve.
	wrapped := fmt.Errorf("context: %w", NewExitError(ExitCommandError, "inner"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "bad path", NewExitError(ExitCommandError, "bad path").Error())
	assert.Equal(t, "run failed: boom",
		WrapExitError(ExitFailure, "run failed", errors.New("boom")).Error())
}

func TestOutputFormatterText(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "text", Writer: &buf}

	err := f.Print(map[string]int{"n": 1}, func(w io.Writer) {
		fmt.Fprintln(w, "one item")
	})
	require.NoError(t, err)
	assert.Equal(t, "one item\n", buf.String())
}

func TestOutputFormatterJSON(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}

	err := f.Print(map[string]int{"n": 1}, func(io.Writer) {
		t.Fatal("text renderer must not run in json format")
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n": 1}`, buf.String())
}
