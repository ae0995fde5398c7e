package combine

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"promptpack/pkg/engine"
	"promptpack/pkg/ignore"
)

type fileClass int

const (
	classText fileClass = iota
	classBinary
	classSkipped
)

// classifyFile decides whether a collected file is processed, reported as
// binary or silently skipped.
func classifyFile(path, relPath string, size int64, gi *ignore.Matcher, maxFileSizeKB int, logger *zap.Logger, verbose bool) fileClass {
	if gi.Match(relPath, false) {
		if verbose {
			logger.Debug("File matches ignore pattern", zap.String("file", path), zap.String("relPath", relPath))
		}
		return classSkipped
	}

	if isCommonBinaryExtension(path) {
		if verbose {
			logger.Debug("File has binary extension", zap.String("file", path))
		}
		return classBinary
	}

	if maxFileSizeKB > 0 && size > int64(maxFileSizeKB)*1024 {
		if verbose {
			logger.Debug("File exceeds size limit",
				zap.String("file", path),
				zap.Int64("sizeBytes", size),
				zap.Int("maxSizeKB", maxFileSizeKB))
		}
		return classSkipped
	}

	isBinary, err := isBinaryFile(path)
	if err != nil {
		logger.Warn("Failed to check if file is binary", zap.String("file", path), zap.Error(err))
		return classSkipped
	}
	if isBinary {
		if verbose {
			logger.Debug("File is binary", zap.String("file", path))
		}
		return classBinary
	}
	return classText
}

// isTerminal reports whether r or w is an interactive terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// promptUser writes message to out and reads a y/n answer from in.
// "y" and "yes" (any case) confirm.
func promptUser(in io.Reader, out io.Writer, message string) (bool, error) {
	fmt.Fprint(out, message)
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && response == "" {
		return false, err
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes", nil
}

// WriteCombinedFile writes the tree followed by every result's content.
func WriteCombinedFile(outputPath, treeContent string, results []engine.Result, logger *zap.Logger) (err error) {
	logger.Debug("Writing combined content to output file", zap.String("combinedFile", outputPath))

	outFile, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		err = multierr.Append(err, outFile.Close())
	}()

	writer := bufio.NewWriter(outFile)
	if _, err := writer.WriteString(treeContent); err != nil {
		return fmt.Errorf("failed to write tree content: %w", err)
	}
	for _, r := range results {
		if _, err := writer.WriteString(r.Content); err != nil {
			return fmt.Errorf("failed to write content of %s: %w", r.FilePath, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// ensureDirectory creates path and its parents if needed.
func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return err
	}
	logger.Debug("Ensured directory exists", zap.String("path", path))
	return nil
}
