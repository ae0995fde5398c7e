package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Formatter renders processed content for inclusion in the combined output.
type Formatter interface {
	Format(relPath, content string) string
}

// HeaderFormatter prefixes each file with a separator line and a source header.
type HeaderFormatter struct{}

var separatorLine = "# " + strings.Repeat("-", 78)

// Format implements Formatter.
func (HeaderFormatter) Format(relPath, content string) string {
	return fmt.Sprintf("\n\n%s\n# Source: %s #\n\n%s", separatorLine, relPath, content)
}

// relativePath returns path relative to root with forward slashes, or the
// base name when no root is configured.
func relativePath(root, path string) string {
	if root == "" {
		return filepath.Base(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
