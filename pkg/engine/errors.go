package engine

import "errors"

var (
	// ErrInvalidPath is returned for empty or malformed file paths.
	ErrInvalidPath = errors.New("invalid file path")
	// ErrPathTraversal is returned when a file resolves outside the root directory.
	ErrPathTraversal = errors.New("path escapes root directory")
	// ErrNotRegularFile is returned for directories, devices and other non-files.
	ErrNotRegularFile = errors.New("not a regular file")
	// ErrInsufficientMemory is returned when the monitor reports too little
	// free heap for a file. It is recoverable: the caller may retry later.
	ErrInsufficientMemory = errors.New("insufficient memory to process file")
	// ErrWorkerLost is returned for a task whose worker crashed while running it.
	ErrWorkerLost = errors.New("worker lost while processing file")
	// ErrPoolClosed is returned for tasks submitted to, or abandoned by, a pool
	// that has been cleaned up.
	ErrPoolClosed = errors.New("worker pool closed")
)

// FileError describes why a single file could not be processed.
type FileError struct {
	FilePath string
	Message  string
	Stack    string // set for worker-fatal failures
	Err      error
}

func (e *FileError) Error() string {
	return e.Message
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Recoverable reports whether retrying the file later may succeed.
func (e *FileError) Recoverable() bool {
	return errors.Is(e.Err, ErrInsufficientMemory)
}

func newFileError(path string, err error, stack string) *FileError {
	return &FileError{FilePath: path, Message: err.Error(), Stack: stack, Err: err}
}
