package engine

import (
	"runtime"
	"time"

	"promptpack/pkg/compact"
	"promptpack/pkg/normalize"
	"promptpack/pkg/truncate"
)

// Default option values.
const (
	DefaultChunkSize           = 64 * 1024
	DefaultStreamingThreshold  = 1 << 20
	DefaultCompactionThreshold = 256 * 1024
	DefaultMaxBufferSize       = 2 << 20
	DefaultCleanupTimeout      = 5 * time.Second
)

// Options is the processing-options record shared by every task of a pool.
type Options struct {
	RootDir             string            // files must resolve inside this directory when set
	MaxWorkers          int               // worker slots; <= 0 means runtime.NumCPU()
	ChunkSize           int               // upper bound for streaming read chunks
	StreamingThreshold  int64             // files larger than this are streamed
	CompactionThreshold int64             // files larger than this are compacted when UseCompactor is set
	UseCompactor        bool              // enables the compaction stage
	CompactLines        int               // compactor line budget
	ContextLines        int               // context window around important lines
	ImportanceThreshold float64           // line/section importance cut-off in [0,1]
	PreserveStructure   bool              // re-indent compacted output
	MaxHeapUsage        uint64            // critical heap threshold in bytes; 0 derives it from the heap limit
	GCThreshold         uint64            // warning heap threshold in bytes; 0 derives it from the heap limit
	MemoryCheckInterval time.Duration     // memory sampling period
	MaxBufferSize       int64             // byte cap on each file's content; 0 is unbounded
	MaxLines            int               // line cap on each file's content; 0 is unbounded
	Normalization       normalize.Options // content normalization passes
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MaxWorkers:          runtime.NumCPU(),
		ChunkSize:           DefaultChunkSize,
		StreamingThreshold:  DefaultStreamingThreshold,
		CompactionThreshold: DefaultCompactionThreshold,
		CompactLines:        compact.DefaultMaxLines,
		ContextLines:        compact.DefaultContextLines,
		ImportanceThreshold: compact.DefaultImportanceThreshold,
		MemoryCheckInterval: time.Second,
		MaxBufferSize:       DefaultMaxBufferSize,
		Normalization:       normalize.Options{NormalizeLineEndings: true},
	}
}

func (o Options) limits() truncate.Limits {
	return truncate.Limits{MaxSize: o.MaxBufferSize, MaxLines: o.MaxLines}
}

func (o Options) compactConfig() compact.Config {
	return compact.Config{
		MaxLines:            o.CompactLines,
		ContextLines:        o.ContextLines,
		ImportanceThreshold: o.ImportanceThreshold,
		PreserveStructure:   o.PreserveStructure,
	}
}
