package combine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"promptpack/pkg/engine"
	"promptpack/pkg/ignore"
)

// Run collects the files under args.Paths, processes them with the engine
// and writes the tree and combined output. Individual file failures are
// reported in the returned Report; an error means the run itself failed.
func Run(ctx context.Context, args Arguments, streams Streams, logger *zap.Logger) (*Report, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(args.Paths) == 0 {
		args.Paths = []string{"."}
	}
	batchID := uuid.New().String()
	logger = logger.With(zap.String("batchID", batchID))
	start := time.Now()
	logger.Debug("Starting combine process", zap.Strings("paths", args.Paths))

	if err := ensureDirectory(filepath.Dir(args.Output), logger); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := ensureDirectory(filepath.Dir(args.Tree), logger); err != nil {
		return nil, fmt.Errorf("failed to create tree output directory: %w", err)
	}

	root, err := commonRoot(args.Paths)
	if err != nil {
		return nil, err
	}
	gi, err := ignore.Load(root, args.GlobalIgnoreFile, logger.Named("ignore"))
	if err != nil {
		return nil, fmt.Errorf("failed to load ignore patterns: %w", err)
	}
	if len(args.IgnorePatterns) > 0 {
		gi.CompileLines(args.IgnorePatterns...)
		logger.Debug("Added command-line ignore patterns", zap.Int("count", len(args.IgnorePatterns)))
	}
	excludeOutputs(gi, root, args.Output, args.Tree)

	collected, err := CollectFiles(args.Paths, gi, args.MaxFileSizeKB, logger, args.Verbose)
	if err != nil {
		return nil, fmt.Errorf("failed to collect files: %w", err)
	}

	if len(collected.Binary) > 0 {
		logger.Warn("Detected binary files. These files are not included in the combined output.",
			zap.Int("binaryFileCount", len(collected.Binary)),
			zap.Strings("binaryFiles", collected.Binary))

		if !args.AssumeYes && isTerminal(streams.In) {
			ok, err := promptUser(streams.In, streams.Out, fmt.Sprintf(
				"Detected %d binary files. Do you want to continue and exclude these files? (y/n): ", len(collected.Binary)))
			if err != nil {
				return nil, fmt.Errorf("failed to read user input: %w", err)
			}
			if !ok {
				logger.Info("User chose to abort the combine process due to detected binary files")
				return &Report{BatchID: batchID, Output: args.Output, Binary: len(collected.Binary), Aborted: true}, nil
			}
		}
	}

	opts := args.Engine
	opts.RootDir = root
	observer := newProgressObserver(collected.TotalBytes, streams.Err, isTerminal(streams.Err), logger)

	var batch *engine.Batch
	if len(collected.Regular) == 0 {
		logger.Warn("No files to process after filtering")
		batch = &engine.Batch{}
	} else if args.Sequential {
		batch = engine.ProcessSequential(ctx, collected.Regular, opts, logger, engine.WithObserver(observer))
	} else {
		pool := engine.NewPool(opts, logger, engine.WithObserver(observer))
		batch = pool.ProcessBatch(ctx, collected.Regular)
		if err := pool.Cleanup(context.Background()); err != nil {
			logger.Warn("Worker pool cleanup failed", zap.Error(err))
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("combine interrupted: %w", err)
	}

	sort.Slice(batch.Results, func(i, j int) bool {
		return batch.Results[i].FilePath < batch.Results[j].FilePath
	})
	sort.Slice(batch.Errors, func(i, j int) bool {
		return batch.Errors[i].FilePath < batch.Errors[j].FilePath
	})

	treeContent := GenerateFullTree(args.Paths, gi, logger)
	if err := os.WriteFile(args.Tree, []byte(treeContent), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write tree structure: %w", err)
	}
	if err := WriteCombinedFile(args.Output, treeContent, batch.Results, logger); err != nil {
		return nil, fmt.Errorf("failed to write combined file: %w", err)
	}

	report := newReport(batchID, args.Output, batch, len(collected.Binary), time.Since(start))
	for _, f := range batch.Errors {
		logger.Warn("File skipped", zap.String("filePath", f.FilePath), zap.Error(f.Err))
	}
	logger.Info("Successfully combined files",
		zap.String("outputFile", args.Output),
		zap.Int("totalFiles", report.Processed),
		zap.Int("failedFiles", report.Failed()),
		zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

// commonRoot returns the deepest directory containing every path.
func commonRoot(paths []string) (string, error) {
	var root string
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		dir := abs
		if info, err := os.Stat(abs); err != nil || !info.IsDir() {
			dir = filepath.Dir(abs)
		}
		if root == "" {
			root = dir
			continue
		}
		for !within(root, dir) {
			parent := filepath.Dir(root)
			if parent == root {
				break
			}
			root = parent
		}
	}
	if root == "" {
		return "", errors.New("no input paths")
	}
	return root, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// excludeOutputs keeps previous output files from being combined again.
func excludeOutputs(gi *ignore.Matcher, root string, files ...string) {
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil || !within(root, abs) {
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		gi.CompileLines("/" + filepath.ToSlash(rel))
	}
}
