package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptpack/pkg/version"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(nil)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, version.Version+"\n", out)

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "promptpack version")
}

func TestCombineCmd(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.md"), []byte("# B\n"), 0o644))
	cfg := filepath.Join(dir, "promptpack.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("ignore: [\"*.md\", \"*.yaml\"]\n"), 0o644))
	output := filepath.Join(dir, "out", "combined.txt")

	out, err := run(t, "combine", dir,
		"--config", cfg,
		"-o", output,
		"-t", filepath.Join(dir, "out", "tree.txt"),
		"-w", "2",
		"--sequential")
	require.NoError(t, err)
	assert.Contains(t, out, "Combined 1 files")

	combined, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(combined), "# Source: a.go #")
	assert.NotContains(t, string(combined), "# Source: b.md #")
}

func TestCombineCmdMissingConfig(t *testing.T) {
	_, err := run(t, "combine", t.TempDir(), "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
