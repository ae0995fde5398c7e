package combine

import (
	"io"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"promptpack/pkg/engine"
)

// progressObserver turns engine events into a byte progress bar and log lines.
type progressObserver struct {
	bar    *progressbar.ProgressBar // nil when output is not a terminal
	logger *zap.Logger
}

func newProgressObserver(total int64, w io.Writer, showBar bool, logger *zap.Logger) *progressObserver {
	o := &progressObserver{logger: logger}
	if showBar {
		o.bar = progressbar.NewOptions64(total,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetDescription("Combining files"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
	}
	return o
}

func (o *progressObserver) Observe(e engine.Event) {
	switch e.Kind {
	case engine.EventProgress:
		if o.bar != nil {
			_ = o.bar.Add64(e.BytesProcessed)
		}
	case engine.EventMemoryCritical:
		o.logger.Warn("Memory pressure critical, processing paused",
			zap.Uint64("heapUsed", e.Memory.HeapUsed),
			zap.Uint64("heapTotal", e.Memory.HeapTotal))
	case engine.EventWorkerError:
		o.logger.Error("Worker failed", zap.Int("workerID", e.WorkerID), zap.Error(e.Err))
	case engine.EventWorkerExit:
		o.logger.Warn("Worker exited", zap.Int("workerID", e.WorkerID), zap.Int("exitCode", e.ExitCode))
	case engine.EventBatchComplete:
		if o.bar != nil {
			_ = o.bar.Finish()
		}
	}
}
