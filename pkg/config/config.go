// Package config loads the optional .promptpack.yaml file and layers it,
// and any explicitly set command-line flags, over the default arguments.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"promptpack/pkg/combine"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = ".promptpack.yaml"

// File mirrors the YAML configuration. Only keys present in the file
// override defaults.
type File struct {
	Output        *string  `yaml:"output"`
	Tree          *string  `yaml:"tree"`
	GlobalIgnore  *string  `yaml:"globalIgnore"`
	Ignore        []string `yaml:"ignore"`
	MaxFileSizeKB *int     `yaml:"maxFileSizeKB"`
	Sequential    *bool    `yaml:"sequential"`

	MaxWorkers          *int           `yaml:"maxWorkers"`
	ChunkSize           *int           `yaml:"chunkSize"`
	StreamingThreshold  *int64         `yaml:"streamingThreshold"`
	CompactionThreshold *int64         `yaml:"compactionThreshold"`
	UseCompactor        *bool          `yaml:"useCompactor"`
	CompactLines        *int           `yaml:"compactLines"`
	ContextLines        *int           `yaml:"contextLines"`
	ImportanceThreshold *float64       `yaml:"importanceThreshold"`
	PreserveStructure   *bool          `yaml:"preserveStructure"`
	MaxHeapUsage        *uint64        `yaml:"maxHeapUsage"`
	GCThreshold         *uint64        `yaml:"gcThreshold"`
	MemoryCheckInterval *int           `yaml:"memoryCheckInterval"` // milliseconds
	MaxBufferSize       *int64         `yaml:"maxBufferSize"`
	MaxLines            *int           `yaml:"maxLines"`
	Normalization       *Normalization `yaml:"normalization"`
}

// Normalization mirrors normalize.Options with optional fields.
type Normalization struct {
	NormalizeLineEndings *bool `yaml:"normalizeLineEndings"`
	NormalizeWhitespace  *bool `yaml:"normalizeWhitespace"`
	RemoveHTMLTags       *bool `yaml:"removeHtmlTags"`
}

// Load reads the configuration at path. An empty path means DefaultFile,
// which may be absent; an explicitly named file must exist. The returned
// string is the file actually read, empty if none.
func Load(path string) (*File, string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return &File{}, "", nil
		}
		return nil, "", fmt.Errorf("failed to read config %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return f, path, nil
}

// Parse decodes YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) validate() error {
	if f.ImportanceThreshold != nil && (*f.ImportanceThreshold < 0 || *f.ImportanceThreshold > 1) {
		return fmt.Errorf("importanceThreshold must be within [0,1], got %v", *f.ImportanceThreshold)
	}
	if f.MemoryCheckInterval != nil && *f.MemoryCheckInterval <= 0 {
		return fmt.Errorf("memoryCheckInterval must be positive, got %d", *f.MemoryCheckInterval)
	}
	if f.MaxWorkers != nil && *f.MaxWorkers < 0 {
		return fmt.Errorf("maxWorkers must not be negative, got %d", *f.MaxWorkers)
	}
	return nil
}

// Apply overlays the keys present in f onto args.
func (f *File) Apply(args *combine.Arguments) {
	set(&args.Output, f.Output)
	set(&args.Tree, f.Tree)
	set(&args.GlobalIgnoreFile, f.GlobalIgnore)
	args.IgnorePatterns = append(args.IgnorePatterns, f.Ignore...)
	set(&args.MaxFileSizeKB, f.MaxFileSizeKB)
	set(&args.Sequential, f.Sequential)

	o := &args.Engine
	set(&o.MaxWorkers, f.MaxWorkers)
	set(&o.ChunkSize, f.ChunkSize)
	set(&o.StreamingThreshold, f.StreamingThreshold)
	set(&o.CompactionThreshold, f.CompactionThreshold)
	set(&o.UseCompactor, f.UseCompactor)
	set(&o.CompactLines, f.CompactLines)
	set(&o.ContextLines, f.ContextLines)
	set(&o.ImportanceThreshold, f.ImportanceThreshold)
	set(&o.PreserveStructure, f.PreserveStructure)
	set(&o.MaxHeapUsage, f.MaxHeapUsage)
	set(&o.GCThreshold, f.GCThreshold)
	set(&o.MaxBufferSize, f.MaxBufferSize)
	set(&o.MaxLines, f.MaxLines)
	if f.MemoryCheckInterval != nil {
		o.MemoryCheckInterval = time.Duration(*f.MemoryCheckInterval) * time.Millisecond
	}
	if n := f.Normalization; n != nil {
		set(&o.Normalization.NormalizeLineEndings, n.NormalizeLineEndings)
		set(&o.Normalization.NormalizeWhitespace, n.NormalizeWhitespace)
		set(&o.Normalization.RemoveHTMLTags, n.RemoveHTMLTags)
	}
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
