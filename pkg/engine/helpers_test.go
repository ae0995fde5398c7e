package engine

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFiles creates files under dir and returns their absolute paths in
// the order given.
func writeFiles(t *testing.T, dir string, files map[string]string, order []string) []string {
	t.Helper()
	paths := make([]string, 0, len(order))
	for _, name := range order {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(files[name]), 0o644))
		paths = append(paths, path)
	}
	return paths
}

// recorder collects events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) of(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func testOptions(root string) Options {
	opts := DefaultOptions()
	opts.RootDir = root
	opts.MaxWorkers = 3
	return opts
}
