package combine

import (
	"io"
	"os"

	"promptpack/pkg/engine"
)

// Arguments holds the configuration options for the file combining process.
type Arguments struct {
	Paths            []string       // files or directories to process
	Output           string         // destination path for the combined output file
	Tree             string         // destination path for the tree structure output file
	GlobalIgnoreFile string         // optional global .combineignore file
	MaxFileSizeKB    int            // larger files are skipped during collection; 0 disables the cap
	IgnorePatterns   []string       // additional ignore patterns from the command line
	Verbose          bool           // log every skipped file
	Sequential       bool           // process files one at a time instead of using the pool
	AssumeYes        bool           // do not ask before excluding binary files
	Engine           engine.Options // per-file processing options
}

// DefaultArguments returns the arguments used when nothing is configured.
func DefaultArguments() Arguments {
	return Arguments{
		Paths:         []string{"."},
		Output:        "debug/output.txt",
		Tree:          "debug/tree.txt",
		MaxFileSizeKB: 1024,
		Engine:        engine.DefaultOptions(),
	}
}

// Streams are the standard streams a run talks to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// StdStreams returns the process streams.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}
}

// CollectedFiles contains categorized lists of files discovered during collection.
type CollectedFiles struct {
	Regular    []string // text files to process
	Binary     []string // files excluded as binary
	TotalBytes int64    // combined size of Regular
}
