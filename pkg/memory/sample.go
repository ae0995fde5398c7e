package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"time"
)

// defaultHeapLimit stands in for the heap size limit when GOMEMLIMIT is unset.
const defaultHeapLimit = 4 << 30

// Sample is a point-in-time memory reading. HeapTotal is the heap size
// limit the process works against, not the heap currently reserved.
// RSS and PeakRSS are zero where the platform cannot report them.
type Sample struct {
	HeapUsed  uint64
	HeapTotal uint64
	RSS       uint64 // current resident set size
	PeakRSS   uint64 // highest resident set size so far
	Timestamp time.Time
}

// Available returns HeapTotal - HeapUsed, floored at zero.
func (s Sample) Available() uint64 {
	if s.HeapTotal <= s.HeapUsed {
		return 0
	}
	return s.HeapTotal - s.HeapUsed
}

func (s Sample) degraded() bool {
	return s.HeapTotal == 0
}

// Reader produces memory samples.
type Reader func() (Sample, error)

// ReadRuntime samples the Go runtime.
func ReadRuntime() (Sample, error) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	// RSS is informational; failing to read it does not degrade the sample
	rss, _ := residentSetSize()
	peak, _ := peakResidentSetSize()
	return Sample{
		HeapUsed:  ms.HeapAlloc,
		HeapTotal: HeapLimit(),
		RSS:       rss,
		PeakRSS:   peak,
		Timestamp: time.Now(),
	}, nil
}

// HeapLimit returns the runtime soft memory limit, or 4 GiB when none is set.
func HeapLimit() uint64 {
	limit := debug.SetMemoryLimit(-1)
	if limit <= 0 || limit == math.MaxInt64 {
		return defaultHeapLimit
	}
	return uint64(limit)
}
