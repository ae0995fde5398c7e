package memory

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// residentSetSize returns the current resident set size in bytes.
func residentSetSize() (uint64, error) {
	data, err := os.ReadFile("/proc/self/statm")
	if err != nil {
		return 0, err
	}
	return parseStatm(string(data), uint64(os.Getpagesize()))
}

// parseStatm reads the resident field (second, in pages) of a statm line.
func parseStatm(line string, pageSize uint64) (uint64, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed statm: %q", line)
	}
	pages, err := strconv.ParseUint(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed statm resident field: %w", err)
	}
	return pages * pageSize, nil
}
