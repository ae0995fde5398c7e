package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptpack/pkg/combine"
)

func TestParseAndApply(t *testing.T) {
	data := []byte(`
output: build/all.txt
ignore: ["*.log", "tmp/"]
maxFileSizeKB: 64
maxWorkers: 8
useCompactor: true
compactLines: 40
importanceThreshold: 0.5
memoryCheckInterval: 250
maxBufferSize: 4096
normalization:
  normalizeWhitespace: true
  removeHtmlTags: true
`)
	f, err := Parse(data)
	require.NoError(t, err)

	args := combine.DefaultArguments()
	f.Apply(&args)

	assert.Equal(t, "build/all.txt", args.Output)
	assert.Equal(t, combine.DefaultArguments().Tree, args.Tree)
	assert.Equal(t, []string{"*.log", "tmp/"}, args.IgnorePatterns)
	assert.Equal(t, 64, args.MaxFileSizeKB)
	assert.Equal(t, 8, args.Engine.MaxWorkers)
	assert.True(t, args.Engine.UseCompactor)
	assert.Equal(t, 40, args.Engine.CompactLines)
	assert.InDelta(t, 0.5, args.Engine.ImportanceThreshold, 1e-9)
	assert.Equal(t, 250*time.Millisecond, args.Engine.MemoryCheckInterval)
	assert.Equal(t, int64(4096), args.Engine.MaxBufferSize)
	assert.True(t, args.Engine.Normalization.NormalizeWhitespace)
	assert.True(t, args.Engine.Normalization.RemoveHTMLTags)
	// untouched keys keep their defaults
	assert.True(t, args.Engine.Normalization.NormalizeLineEndings)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "unknown key", data: "outptu: x\n"},
		{name: "wrong type", data: "maxWorkers: many\n"},
		{name: "threshold out of range", data: "importanceThreshold: 1.5\n"},
		{name: "non-positive interval", data: "memoryCheckInterval: 0\n"},
		{name: "negative workers", data: "maxWorkers: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseEmpty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)

	args := combine.DefaultArguments()
	f.Apply(&args)
	assert.Equal(t, combine.DefaultArguments(), args)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tree: t.txt\n"), 0o644))

	f, used, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	require.NotNil(t, f.Tree)
	assert.Equal(t, "t.txt", *f.Tree)

	_, _, err = Load(filepath.Join(dir, "absent.yaml"))
	assert.Error(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	f, used, err = Load("")
	require.NoError(t, err)
	assert.Empty(t, used)
	assert.Nil(t, f.Tree)
}

func TestFlagsOverrideFile(t *testing.T) {
	def := combine.DefaultArguments()
	fs := pflag.NewFlagSet("combine", pflag.ContinueOnError)
	RegisterFlags(fs, def)
	require.NoError(t, fs.Parse([]string{"-w", "2", "--ignore", "a,b", "--compact", "--memory-interval", "2s"}))

	f, err := Parse([]byte("maxWorkers: 8\ncompactLines: 40\nignore: [c]\n"))
	require.NoError(t, err)

	args := def
	f.Apply(&args)
	require.NoError(t, ApplyFlags(fs, &args))

	assert.Equal(t, 2, args.Engine.MaxWorkers, "flag beats file")
	assert.Equal(t, 40, args.Engine.CompactLines, "file beats default")
	assert.True(t, args.Engine.UseCompactor)
	assert.Equal(t, 2*time.Second, args.Engine.MemoryCheckInterval)
	assert.Equal(t, []string{"c", "a", "b"}, args.IgnorePatterns)
	assert.Equal(t, def.Output, args.Output, "unset flag keeps value")
}

func TestApplyFlagsRejectsBadThreshold(t *testing.T) {
	fs := pflag.NewFlagSet("combine", pflag.ContinueOnError)
	RegisterFlags(fs, combine.DefaultArguments())
	require.NoError(t, fs.Parse([]string{"--importance-threshold", "2"}))

	args := combine.DefaultArguments()
	assert.Error(t, ApplyFlags(fs, &args))
}
