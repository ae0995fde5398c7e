package engine

import (
	"sort"
)

// Task is a unit of work: one file and the options to process it with.
type Task struct {
	FilePath string
	Options  Options
}

// Stats describes how a file was processed.
type Stats struct {
	OriginalSize int64 // size of the file on disk
	Compacted    bool  // content was streamed, truncated or compacted
	MemoryUsed   int64 // heap growth observed while processing, floored at zero
}

// Result is the outcome of processing one file. Exactly one of Content
// and Err is meaningful.
type Result struct {
	Index    int // position of the file in the submitted batch
	FilePath string
	Content  string
	Stats    Stats
	Err      *FileError
}

// Failed reports whether the file could not be processed.
func (r Result) Failed() bool {
	return r.Err != nil
}

func failure(index int, path string, err error, stack string) Result {
	return Result{Index: index, FilePath: path, Err: newFileError(path, err, stack)}
}

// Batch holds the outcome of ProcessBatch. Each submitted file appears in
// exactly one of Results or Errors. Entries are in completion order.
type Batch struct {
	Results []Result
	Errors  []Result
}

// Len returns the total number of files accounted for.
func (b *Batch) Len() int {
	return len(b.Results) + len(b.Errors)
}

// Sort orders Results and Errors by their submission index.
func (b *Batch) Sort() {
	byIndex := func(rs []Result) func(i, j int) bool {
		return func(i, j int) bool { return rs[i].Index < rs[j].Index }
	}
	sort.Slice(b.Results, byIndex(b.Results))
	sort.Slice(b.Errors, byIndex(b.Errors))
}

func (b *Batch) add(r Result) {
	if r.Failed() {
		b.Errors = append(b.Errors, r)
		return
	}
	b.Results = append(b.Results, r)
}
