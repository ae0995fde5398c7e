// Package engine processes source files concurrently under bounded memory.
//
// The primary type is Pool, a fixed set of worker slots fed by a single
// control loop. Each worker validates its file, consults the memory monitor,
// reads the file directly or through a truncating stream, optionally
// normalizes and compacts the content, and returns a formatted Result.
//
// # Basic Usage
//
//	opts := engine.DefaultOptions()
//	opts.RootDir = "/path/to/project"
//	pool := engine.NewPool(opts, logger)
//	defer pool.Cleanup(context.Background())
//
//	batch := pool.ProcessBatch(ctx, files)
//	for _, r := range batch.Results {
//	    fmt.Println(r.FilePath, r.Stats.OriginalSize)
//	}
//	for _, r := range batch.Errors {
//	    fmt.Println(r.FilePath, r.Err)
//	}
//
// # Failure Model
//
// Every file ends up exactly once in either Batch.Results or Batch.Errors;
// a failing file never fails the batch. Validation, memory and I/O failures
// are reported as *FileError values wrapping one of the sentinel errors.
// A worker that panics is replaced by a fresh worker with the same id and
// the task it was running fails with ErrWorkerLost.
//
// # Memory Pressure
//
// When the memory monitor reports critical pressure the pool stops
// dispatching, tells every worker to pause and runs a GC pass. Queued work
// resumes once the monitor reports recovery.
//
// # Events
//
// Observers registered with WithObserver receive progress, memory,
// worker-exit, worker-error and batch-complete events. Observers may be
// called from several goroutines and must not block.
package engine
