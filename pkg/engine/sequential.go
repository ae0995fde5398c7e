package engine

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// ProcessSequential processes files one at a time on the calling goroutine.
// It uses the same per-file pipeline as Pool and is the fallback when
// concurrent processing is unavailable or disabled. A panic while
// processing a file fails only that file.
func ProcessSequential(ctx context.Context, files []string, opts Options, logger *zap.Logger, popts ...PoolOption) *Batch {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, owns := newConfig(opts, logger, popts)
	if owns {
		cfg.monitor.Start(ctx)
		defer cfg.monitor.Stop()
	}

	batch := &Batch{}
	for i, f := range files {
		if err := ctx.Err(); err != nil {
			batch.add(failure(i, f, err, ""))
			continue
		}
		batch.add(runOne(ctx, cfg, i, Task{FilePath: f, Options: opts}))
	}

	logger.Debug("Sequential batch complete",
		zap.Int("processed", len(batch.Results)),
		zap.Int("failed", len(batch.Errors)))
	cfg.observers.emit(Event{Kind: EventBatchComplete, Batch: batch})
	return batch
}

func runOne(ctx context.Context, cfg poolConfig, index int, task Task) (res Result) {
	defer func() {
		if v := recover(); v != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			res = failure(index, task.FilePath, fmt.Errorf("panic processing %s: %v", task.FilePath, v), string(buf[:n]))
		}
	}()

	progress := func(bytes int64) {
		if bytes > 0 {
			cfg.observers.emit(Event{Kind: EventProgress, FilePath: task.FilePath, BytesProcessed: bytes})
		}
	}
	r, err := cfg.process(ctx, task, progress)
	if err != nil {
		return failure(index, task.FilePath, err, "")
	}
	r.Index = index
	r.FilePath = task.FilePath
	return r
}
