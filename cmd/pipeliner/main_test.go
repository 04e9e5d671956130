package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/pipeliner/internal/cli"
	"github.com/stretchr/testify/require"
)

func TestRun_Help(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(context.Background(), out, &bytes.Buffer{}, []string{"--help"})

	require.NoError(t, err, "run() should return a nil error for --help")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
	require.Contains(t, out.String(), "probe")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"status", "--this-is-not-a-valid-flag"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 2, exitErr.Code)
	require.Contains(t, exitErr.Message, "unknown flag: --this-is-not-a-valid-flag")
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Parallel()

	// A project file with a syntax error stops the command before any work.
	path := filepath.Join(t.TempDir(), "pipeliner.hcl")
	require.NoError(t, os.WriteFile(path, []byte("pipeline {\n  name = \n"), 0o600))

	err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"status", "--config", path})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to parse")
}

func TestRun_AddThenStatus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	global := []string{"--project-dir", dir, "--pipeline", filepath.Join(dir, "default_pipeline.star"), "--log-level", "error"}
	out := &bytes.Buffer{}

	err := run(context.Background(), out, &bytes.Buffer{}, append([]string{"add", "--type", "Import", "--status", "finished",
		"--out", "Import/job001/movies.star:movie"}, global...))
	require.NoError(t, err)
	require.Equal(t, "Import/job001/\n", out.String())

	out.Reset()
	err = run(context.Background(), out, &bytes.Buffer{}, append([]string{"status", "--markdown"}, global...))
	require.NoError(t, err)
	require.Contains(t, out.String(), "| 0 | Import/job001/ | Import | finished |")
}
