package root

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config and data directories at fresh temp dirs.
func isolate(t *testing.T) {
	t.Helper()

	t.Setenv("ITEMD_CONFIG_DIR", t.TempDir())
	t.Setenv("ITEMD_DATA_DIR", t.TempDir())

	configPath = ""
	t.Cleanup(func() { configPath = "" })
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := Execute(t.Context(), strings.NewReader(""), &stdout, &stderr, args...)
	return stdout.String(), stderr.String(), err
}

func TestNoArgsShowsHelp(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Core Commands:")
	assert.Contains(t, stdout, "serve")
	assert.Contains(t, stdout, "item")
	assert.Contains(t, stdout, "Advanced Commands:")
	assert.Contains(t, stdout, "watch")
}

func TestVersionCommand(t *testing.T) {
	isolate(t)

	stdout, _, err := execute(t, "version")
	require.NoError(t, err)

	assert.Equal(t, "itemd version dev\nCommit: unknown\n", stdout)
}

func TestUnknownCommandPrintsUsage(t *testing.T) {
	isolate(t)

	stdout, stderr, err := execute(t, "frobnicate")
	require.Error(t, err)

	assert.Contains(t, stderr, `unknown command "frobnicate"`)
	assert.Contains(t, stderr, "Usage:")
	assert.Empty(t, stdout)
}

func TestProcessErr(t *testing.T) {
	t.Run("runtime errors are not printed again", func(t *testing.T) {
		var stderr bytes.Buffer
		err := processErr(t.Context(), RuntimeError{Err: errors.New("boom")}, &stderr, NewRootCmd())

		require.Error(t, err)
		assert.Empty(t, stderr.String())
	})

	t.Run("usage errors are printed", func(t *testing.T) {
		var stderr bytes.Buffer
		err := processErr(t.Context(), errors.New("bad flag"), &stderr, NewRootCmd())

		require.Error(t, err)
		assert.Equal(t, "bad flag\n", stderr.String())
	})

	t.Run("cancelled context wins", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		var stderr bytes.Buffer
		err := processErr(ctx, errors.New("interrupted"), &stderr, NewRootCmd())

		require.ErrorIs(t, err, context.Canceled)
		assert.Empty(t, stderr.String())
	})
}

func TestRuntimeErrorUnwraps(t *testing.T) {
	inner := errors.New("inner")

	err := error(RuntimeError{Err: inner})

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "inner", err.Error())
}
