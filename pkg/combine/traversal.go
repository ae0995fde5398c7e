package combine

import (
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"promptpack/pkg/ignore"
)

// CollectFiles walks paths and sorts the files it finds into regular and
// binary ones. Ignored files and files over maxFileSizeKB are dropped.
// Paths that cannot be read are logged and skipped.
func CollectFiles(paths []string, gi *ignore.Matcher, maxFileSizeKB int, logger *zap.Logger, verbose bool) (CollectedFiles, error) {
	var collected CollectedFiles
	logger.Debug("Starting file collection", zap.Int("pathCount", len(paths)))

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			logger.Warn("Failed to get absolute path", zap.String("path", path), zap.Error(err))
			continue
		}

		info, err := os.Stat(absPath)
		if err != nil {
			logger.Warn("Path does not exist or cannot be accessed", zap.String("path", absPath), zap.Error(err))
			continue
		}

		if info.IsDir() {
			logger.Debug("Processing directory", zap.String("dir", absPath))
			if err := traverseAndCollect(absPath, gi, maxFileSizeKB, logger, verbose, &collected); err != nil {
				logger.Warn("Failed to traverse directory", zap.String("dir", absPath), zap.Error(err))
			}
			continue
		}

		// explicitly named files are matched by base name
		collected.add(absPath, info.Size(), classifyFile(absPath, filepath.Base(absPath), info.Size(), gi, maxFileSizeKB, logger, verbose))
	}

	logger.Debug("Completed file collection",
		zap.Int("regularFiles", len(collected.Regular)),
		zap.Int("binaryFiles", len(collected.Binary)))
	return collected, nil
}

func traverseAndCollect(parentDir string, gi *ignore.Matcher, maxFileSizeKB int, logger *zap.Logger, verbose bool, collected *CollectedFiles) error {
	return filepath.WalkDir(parentDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Error accessing path during traversal", zap.String("path", path), zap.Error(err))
			return nil
		}
		if path == parentDir {
			return nil
		}

		relPath, _ := filepath.Rel(parentDir, path)
		if d.IsDir() {
			if gi.Match(relPath, true) {
				logger.Debug("Skipping ignored directory during traversal", zap.String("directory", path))
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("Failed to get file info during traversal", zap.String("filePath", path), zap.Error(err))
			return nil
		}
		collected.add(path, info.Size(), classifyFile(path, relPath, info.Size(), gi, maxFileSizeKB, logger, verbose))
		return nil
	})
}

func (c *CollectedFiles) add(path string, size int64, class fileClass) {
	switch class {
	case classText:
		c.Regular = append(c.Regular, path)
		c.TotalBytes += size
	case classBinary:
		c.Binary = append(c.Binary, path)
	}
}
