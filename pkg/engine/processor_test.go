package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptpack/pkg/compact"
)

func TestProcessorStreamsLargeFiles(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{
		"big.txt": strings.Repeat("a", 1000),
	}, []string{"big.txt"})

	opts := testOptions(dir)
	opts.StreamingThreshold = 100
	opts.MaxBufferSize = 200
	pool := NewPool(opts, nil)
	defer pool.Cleanup(context.Background())

	r := pool.ProcessFile(context.Background(), paths[0])
	require.False(t, r.Failed(), "%v", r.Err)
	assert.True(t, r.Stats.Compacted)
	assert.Equal(t, int64(1000), r.Stats.OriginalSize)
	assert.True(t, strings.HasSuffix(r.Content, "\n\n"+strings.Repeat("a", 197)+"..."))
}

func TestProcessorDirectReadWithinLimits(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{
		"nested/small.txt": "line one\r\nline two\r\n",
	}, []string{"nested/small.txt"})

	pool := NewPool(testOptions(dir), nil)
	defer pool.Cleanup(context.Background())

	r := pool.ProcessFile(context.Background(), paths[0])
	require.False(t, r.Failed(), "%v", r.Err)
	assert.False(t, r.Stats.Compacted)
	assert.Equal(t, HeaderFormatter{}.Format("nested/small.txt", "line one\nline two\n"), r.Content)
}

func TestProcessorRelativePathsResolveAgainstRoot(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"pkg/a.go": "package a\n"}, []string{"pkg/a.go"})

	pool := NewPool(testOptions(dir), nil)
	defer pool.Cleanup(context.Background())

	r := pool.ProcessFile(context.Background(), "pkg/a.go")
	require.False(t, r.Failed(), "%v", r.Err)
	assert.Contains(t, r.Content, "# Source: pkg/a.go #")
	assert.Equal(t, "pkg/a.go", r.FilePath)
}

func TestProcessorCompactsLargeSource(t *testing.T) {
	var b strings.Builder
	b.WriteString("export class Service {\n")
	for i := 0; i < 300; i++ {
		b.WriteString("  value")
		b.WriteString(strings.Repeat("x", i%7))
		b.WriteString(" = 1;\n")
	}
	b.WriteString("}\n")

	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{"service.ts": b.String()}, []string{"service.ts"})

	opts := testOptions(dir)
	opts.UseCompactor = true
	opts.CompactionThreshold = 10
	opts.CompactLines = 50
	pool := NewPool(opts, nil)
	defer pool.Cleanup(context.Background())

	r := pool.ProcessFile(context.Background(), paths[0])
	require.False(t, r.Failed(), "%v", r.Err)
	assert.True(t, r.Stats.Compacted)
	assert.Contains(t, r.Content, compact.Marker)
	assert.Less(t, strings.Count(r.Content, "\n"), 60)
}

func TestProcessorNormalizes(t *testing.T) {
	dir := t.TempDir()
	paths := writeFiles(t, dir, map[string]string{
		"page.html": "<p>Hello &amp; <b>bye</b></p>   \n",
	}, []string{"page.html"})

	opts := testOptions(dir)
	opts.Normalization.RemoveHTMLTags = true
	opts.Normalization.NormalizeWhitespace = true
	pool := NewPool(opts, nil)
	defer pool.Cleanup(context.Background())

	r := pool.ProcessFile(context.Background(), paths[0])
	require.False(t, r.Failed(), "%v", r.Err)
	assert.True(t, strings.HasSuffix(r.Content, "\n\nHello & bye\n"), "%q", r.Content)
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	tests := []struct {
		name    string
		root    string
		path    string
		wantErr error
	}{
		{name: "inside", root: root, path: filepath.Join(root, "a.txt")},
		{name: "relative inside", root: root, path: "a.txt"},
		{name: "missing inside", root: root, path: "nope.txt"},
		{name: "dot dot", root: root, path: "sub/../../x", wantErr: ErrPathTraversal},
		{name: "symlink escape", root: root, path: "link/file", wantErr: ErrPathTraversal},
		{name: "no root", root: "", path: filepath.Join(outside, "x")},
		{name: "blank", root: root, path: "  ", wantErr: ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolvePath(tt.root, tt.path)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestHeaderFormatter(t *testing.T) {
	out := HeaderFormatter{}.Format("dir/file.go", "body")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "# "+strings.Repeat("-", 78), lines[2])
	assert.Equal(t, "# Source: dir/file.go #", lines[3])
	assert.Equal(t, "body", lines[5])
}
