// Package ignore matches slash-separated relative paths against
// gitignore-style patterns loaded from .combineignore files.
package ignore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// FileName is the name of the per-directory ignore file.
const FileName = ".combineignore"

// GlobalEnv names the environment variable holding the global ignore file.
const GlobalEnv = "COMBINEIGNORE_GLOBAL"

// Pattern is a compiled ignore pattern and where it came from.
type Pattern struct {
	Regexp  *regexp.Regexp
	Negate  bool   // pattern started with '!'
	DirOnly bool   // pattern ended with '/'
	Line    string // original text
	LineNo  int    // 1-based line in Source
	Source  string // file the pattern came from, empty for inline patterns
}

// Matcher holds an ordered list of patterns. The last matching pattern wins.
type Matcher struct {
	patterns []*Pattern
	logger   *zap.Logger
}

// New returns an empty Matcher.
func New(logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{logger: logger}
}

// Load builds a Matcher from the global ignore file (globalPath, or the
// file named by COMBINEIGNORE_GLOBAL when empty) followed by every
// .combineignore file from the filesystem root down to dir, so patterns
// closer to dir take precedence.
func Load(dir, globalPath string, logger *zap.Logger) (*Matcher, error) {
	m := New(logger)

	if globalPath == "" {
		globalPath = os.Getenv(GlobalEnv)
	}
	if globalPath != "" {
		if err := m.CompileFile(globalPath); err != nil {
			return nil, fmt.Errorf("failed to load global ignore file: %w", err)
		}
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	var files []string
	for current := absDir; ; {
		candidate := filepath.Join(current, FileName)
		if _, err := os.Stat(candidate); err == nil {
			files = append([]string{candidate}, files...)
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	for _, f := range files {
		if err := m.CompileFile(f); err != nil {
			return nil, err
		}
		m.logger.Debug("Loaded ignore file", zap.String("file", f))
	}

	m.logger.Debug("Finished loading ignore files",
		zap.Int("files", len(files)),
		zap.Int("totalPatterns", len(m.patterns)))
	return m, nil
}

// CompileLines adds inline patterns, for example from the command line.
func (m *Matcher) CompileLines(lines ...string) {
	m.compile("", lines)
}

// CompileFile adds the patterns in path. A missing file is not an error.
func (m *Matcher) CompileFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			m.logger.Debug("Ignore file does not exist, skipping", zap.String("filePath", path))
			return nil
		}
		return fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}
	m.compile(path, strings.Split(string(content), "\n"))
	return nil
}

func (m *Matcher) compile(source string, lines []string) {
	for i, line := range lines {
		p, err := parse(line)
		if err != nil {
			m.logger.Warn("Invalid ignore pattern",
				zap.String("source", source),
				zap.Int("lineNo", i+1),
				zap.String("pattern", line),
				zap.Error(err))
			continue
		}
		if p == nil {
			continue
		}
		p.LineNo = i + 1
		p.Source = source
		m.patterns = append(m.patterns, p)
	}
}

// Len returns the number of compiled patterns.
func (m *Matcher) Len() int {
	return len(m.patterns)
}

// Match reports whether the relative path is ignored.
func (m *Matcher) Match(relPath string, isDir bool) bool {
	ok, _ := m.MatchWithPattern(relPath, isDir)
	return ok
}

// MatchWithPattern reports whether the relative path is ignored and which
// pattern decided it.
func (m *Matcher) MatchWithPattern(relPath string, isDir bool) (bool, *Pattern) {
	path := strings.TrimPrefix(filepath.ToSlash(relPath), "./")
	if path == "" || path == "." {
		return false, nil
	}
	subject := path
	if isDir {
		subject += "/"
	}

	matched := false
	var decided *Pattern
	for _, p := range m.patterns {
		target := path
		if p.DirOnly {
			target = subject
		}
		if p.Regexp.MatchString(target) {
			matched = !p.Negate
			decided = p
		}
	}
	return matched, decided
}
