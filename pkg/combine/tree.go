package combine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"promptpack/pkg/ignore"
)

// GenerateFullTree renders a directory tree for every input path, skipping
// ignored entries. Directories come before files, each group sorted
// case-insensitively.
func GenerateFullTree(paths []string, gi *ignore.Matcher, logger *zap.Logger) string {
	var tree strings.Builder

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			logger.Warn("Failed to get absolute path for tree generation", zap.String("path", path), zap.Error(err))
			continue
		}
		info, err := os.Stat(absPath)
		if err != nil {
			logger.Warn("Cannot stat path for tree generation", zap.String("path", absPath), zap.Error(err))
			continue
		}

		display := filepath.ToSlash(filepath.Clean(path))
		if !info.IsDir() {
			tree.WriteString(display + "\n")
			continue
		}

		tree.WriteString(strings.TrimSuffix(display, "/") + "/\n")
		lines, err := treeLines(absPath, absPath, gi, "", logger)
		if err != nil {
			logger.Warn("Failed to generate subtree", zap.String("directory", absPath), zap.Error(err))
			continue
		}
		for _, l := range lines {
			tree.WriteString(l + "\n")
		}
	}

	return tree.String()
}

func treeLines(directory, root string, gi *ignore.Matcher, prefix string, logger *zap.Logger) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", directory, err)
	}

	visible := entries[:0]
	for _, e := range entries {
		rel, _ := filepath.Rel(root, filepath.Join(directory, e.Name()))
		if !gi.Match(rel, e.IsDir()) {
			visible = append(visible, e)
		}
	}
	sort.Slice(visible, func(i, j int) bool {
		if visible[i].IsDir() != visible[j].IsDir() {
			return visible[i].IsDir()
		}
		return strings.ToLower(visible[i].Name()) < strings.ToLower(visible[j].Name())
	})

	var out []string
	for i, entry := range visible {
		connector, extension := "├── ", "│   "
		if i == len(visible)-1 {
			connector, extension = "└── ", "    "
		}

		if !entry.IsDir() {
			out = append(out, prefix+connector+entry.Name())
			continue
		}
		out = append(out, prefix+connector+entry.Name()+"/")
		sub, err := treeLines(filepath.Join(directory, entry.Name()), root, gi, prefix+extension, logger)
		if err != nil {
			logger.Warn("Failed to generate subtree", zap.String("directory", entry.Name()), zap.Error(err))
			continue
		}
		out = append(out, sub...)
	}
	return out, nil
}
