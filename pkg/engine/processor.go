package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"promptpack/pkg/compact"
	"promptpack/pkg/memory"
	"promptpack/pkg/normalize"
	"promptpack/pkg/truncate"
)

// ProcessFunc processes a single task. progress may be called any number of
// times with the bytes processed so far. A returned error fails the task;
// a panic kills the worker running it.
type ProcessFunc func(ctx context.Context, task Task, progress func(bytes int64)) (Result, error)

// processor is the default ProcessFunc.
type processor struct {
	logger    *zap.Logger
	monitor   *memory.Monitor
	compactor *compact.Compactor
	formatter Formatter
}

func (p *processor) process(ctx context.Context, task Task, progress func(int64)) (Result, error) {
	opts := task.Options
	abs, err := resolvePath(opts.RootDir, task.FilePath)
	if err != nil {
		return Result{}, err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return Result{}, fmt.Errorf("failed to stat %s: %w", task.FilePath, err)
	}
	if !info.Mode().IsRegular() {
		return Result{}, fmt.Errorf("%w: %s", ErrNotRegularFile, task.FilePath)
	}

	size := info.Size()
	if !p.monitor.IsSafeToProcess(size) {
		return Result{}, fmt.Errorf("%w: %s (%d bytes)", ErrInsufficientMemory, task.FilePath, size)
	}

	before := p.monitor.Sample().HeapUsed
	stats := Stats{OriginalSize: size}

	var content string
	streamed := opts.StreamingThreshold > 0 && size > opts.StreamingThreshold
	if streamed {
		chunk := p.monitor.RecommendedChunkSize()
		if opts.ChunkSize > 0 {
			chunk = min(chunk, opts.ChunkSize)
		}
		content, _, err = truncate.ReadFile(ctx, abs, opts.limits(), chunk)
		if err != nil {
			return Result{}, err
		}
		stats.Compacted = true
		p.logger.Debug("Streamed large file",
			zap.String("file", task.FilePath),
			zap.Int64("size", size),
			zap.Int("chunkSize", chunk))
	} else {
		raw, err := os.ReadFile(abs)
		if err != nil {
			return Result{}, fmt.Errorf("failed to read %s: %w", task.FilePath, err)
		}
		var truncated bool
		content, truncated = truncate.Apply(string(raw), opts.limits())
		stats.Compacted = truncated
	}

	if opts.Normalization.Enabled() {
		content = normalize.Apply(content, opts.Normalization)
	}

	if opts.UseCompactor && (streamed || size > opts.CompactionThreshold) {
		compacted := p.compactor.Compact(content, compact.LanguageFromPath(abs))
		if compacted != content {
			stats.Compacted = true
			content = compacted
		}
	}

	progress(size)

	if after := p.monitor.Sample().HeapUsed; after > before {
		stats.MemoryUsed = int64(after - before)
	}

	return Result{
		FilePath: task.FilePath,
		Content:  p.formatter.Format(relativePath(rootOf(opts.RootDir, abs), abs), content),
		Stats:    stats,
	}, nil
}

// resolvePath returns the absolute, symlink-resolved form of path and
// rejects paths that escape root. Relative paths are taken relative to root.
func resolvePath(root, path string) (string, error) {
	if strings.TrimSpace(path) == "" || strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	if root != "" && !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}
	abs = evalSymlinks(abs)
	if root == "" {
		return abs, nil
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: root %s: %v", ErrInvalidPath, root, err)
	}
	rootAbs = evalSymlinks(rootAbs)

	rel, err := filepath.Rel(rootAbs, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}
	return abs, nil
}

// evalSymlinks resolves links in path. For a path that does not exist the
// parent directory is resolved instead, so missing files are still compared
// against the real root.
func evalSymlinks(path string) string {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		return resolved
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(resolved, filepath.Base(path))
	}
	return path
}

func rootOf(root, abs string) string {
	if root == "" {
		return ""
	}
	if r, err := filepath.Abs(root); err == nil {
		return evalSymlinks(r)
	}
	return filepath.Dir(abs)
}
