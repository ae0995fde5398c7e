package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"promptpack/pkg/combine"
)

// RegisterFlags defines the combine flags on fs with defaults taken from def.
func RegisterFlags(fs *pflag.FlagSet, def combine.Arguments) {
	o := def.Engine
	fs.StringP("output", "o", def.Output, "Output file for the combined content")
	fs.StringP("tree", "t", def.Tree, "Output file for the directory tree")
	fs.StringP("global-ignore", "g", def.GlobalIgnoreFile, "Global .combineignore file (defaults to $COMBINEIGNORE_GLOBAL)")
	fs.StringSliceP("ignore", "i", nil, "Additional ignore patterns")
	fs.IntP("max-size-kb", "m", def.MaxFileSizeKB, "Skip files larger than this many KB (0 disables)")
	fs.BoolP("verbose", "v", def.Verbose, "Log every skipped file")
	fs.Bool("sequential", def.Sequential, "Process files one at a time")
	fs.BoolP("yes", "y", def.AssumeYes, "Exclude binary files without asking")

	fs.IntP("workers", "w", o.MaxWorkers, "Number of concurrent workers")
	fs.Int("chunk-size", o.ChunkSize, "Maximum read chunk size in bytes for streamed files")
	fs.Int64("streaming-threshold", o.StreamingThreshold, "Stream files larger than this many bytes")
	fs.Int64("max-buffer-size", o.MaxBufferSize, "Truncate each file's content to this many bytes (0 disables)")
	fs.Int("max-lines", o.MaxLines, "Truncate each file's content to this many lines (0 disables)")
	fs.Bool("compact", o.UseCompactor, "Compact large source files")
	fs.Int64("compaction-threshold", o.CompactionThreshold, "Compact files larger than this many bytes")
	fs.Int("compact-lines", o.CompactLines, "Line budget for compacted files")
	fs.Int("context-lines", o.ContextLines, "Lines kept around important lines when compacting")
	fs.Float64("importance-threshold", o.ImportanceThreshold, "Importance cut-off for kept lines and sections")
	fs.Bool("preserve-structure", o.PreserveStructure, "Re-indent compacted output")
	fs.Uint64("max-heap", o.MaxHeapUsage, "Pause processing above this heap usage in bytes (0 derives it from the heap limit)")
	fs.Duration("memory-interval", o.MemoryCheckInterval, "Memory sampling interval")
	fs.Bool("normalize-line-endings", o.Normalization.NormalizeLineEndings, "Convert CRLF and CR line endings to LF")
	fs.Bool("normalize-whitespace", o.Normalization.NormalizeWhitespace, "Trim trailing whitespace and collapse blank lines")
	fs.Bool("strip-html", o.Normalization.RemoveHTMLTags, "Remove HTML tags")
}

// ApplyFlags overlays every flag that was set explicitly on the command line.
func ApplyFlags(fs *pflag.FlagSet, args *combine.Arguments) error {
	var err error
	fs.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		err = applyFlag(fs, f.Name, args)
	})
	return err
}

func applyFlag(fs *pflag.FlagSet, name string, args *combine.Arguments) error {
	o := &args.Engine
	var err error
	switch name {
	case "output":
		args.Output, err = fs.GetString(name)
	case "tree":
		args.Tree, err = fs.GetString(name)
	case "global-ignore":
		args.GlobalIgnoreFile, err = fs.GetString(name)
	case "ignore":
		var patterns []string
		patterns, err = fs.GetStringSlice(name)
		args.IgnorePatterns = append(args.IgnorePatterns, patterns...)
	case "max-size-kb":
		args.MaxFileSizeKB, err = fs.GetInt(name)
	case "verbose":
		args.Verbose, err = fs.GetBool(name)
	case "sequential":
		args.Sequential, err = fs.GetBool(name)
	case "yes":
		args.AssumeYes, err = fs.GetBool(name)
	case "workers":
		o.MaxWorkers, err = fs.GetInt(name)
	case "chunk-size":
		o.ChunkSize, err = fs.GetInt(name)
	case "streaming-threshold":
		o.StreamingThreshold, err = fs.GetInt64(name)
	case "max-buffer-size":
		o.MaxBufferSize, err = fs.GetInt64(name)
	case "max-lines":
		o.MaxLines, err = fs.GetInt(name)
	case "compact":
		o.UseCompactor, err = fs.GetBool(name)
	case "compaction-threshold":
		o.CompactionThreshold, err = fs.GetInt64(name)
	case "compact-lines":
		o.CompactLines, err = fs.GetInt(name)
	case "context-lines":
		o.ContextLines, err = fs.GetInt(name)
	case "importance-threshold":
		o.ImportanceThreshold, err = fs.GetFloat64(name)
		if err == nil && (o.ImportanceThreshold < 0 || o.ImportanceThreshold > 1) {
			err = fmt.Errorf("must be within [0,1], got %v", o.ImportanceThreshold)
		}
	case "preserve-structure":
		o.PreserveStructure, err = fs.GetBool(name)
	case "max-heap":
		o.MaxHeapUsage, err = fs.GetUint64(name)
	case "memory-interval":
		o.MemoryCheckInterval, err = fs.GetDuration(name)
	case "normalize-line-endings":
		o.Normalization.NormalizeLineEndings, err = fs.GetBool(name)
	case "normalize-whitespace":
		o.Normalization.NormalizeWhitespace, err = fs.GetBool(name)
	case "strip-html":
		o.Normalization.RemoveHTMLTags, err = fs.GetBool(name)
	}
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", name, err)
	}
	return nil
}
