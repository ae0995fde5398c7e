// Package memory samples process memory at a fixed interval and classifies
// heap pressure so that callers can decide whether to start more work.
package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Size multipliers used to estimate the heap needed to process a file.
const (
	MinimumMultiplier     = 1.5 // bare minimum: content plus one copy
	RecommendedMultiplier = 2.0 // used by IsSafeToProcess
	PeakMultiplier        = 2.5 // peak estimate with compaction buffers
)

const (
	// DefaultInterval is the sampling period used when none is configured.
	DefaultInterval = time.Second
	// MinChunkSize is the smallest chunk RecommendedChunkSize ever returns.
	MinChunkSize = 64 * 1024

	maxHeapRatio = 0.80
	gcRatio      = 0.75
	chunkRatio   = 0.1
)

// Level classifies memory pressure.
type Level int

const (
	LevelNormal Level = iota
	LevelWarning
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelCritical:
		return "critical"
	default:
		return "normal"
	}
}

// Signal is a notification delivered to listeners on a sampling tick.
type Signal int

const (
	// SignalWarning is sent on every tick spent above the GC threshold.
	SignalWarning Signal = iota
	// SignalCritical is sent on every tick spent above the maximum heap usage.
	SignalCritical
	// SignalRecovered is sent on the first tick below critical after a critical one.
	SignalRecovered
)

func (s Signal) String() string {
	switch s {
	case SignalWarning:
		return "memory-warning"
	case SignalCritical:
		return "memory-critical"
	default:
		return "memory-recovered"
	}
}

// Listener receives monitor signals. It is called from the sampling
// goroutine and must not block.
type Listener func(Signal, Sample)

// Monitor periodically samples memory and notifies listeners about pressure.
// It never halts work itself.
type Monitor struct {
	logger      *zap.Logger
	interval    time.Duration
	maxHeap     uint64
	gcThreshold uint64
	read        Reader

	mu        sync.Mutex
	listeners []subscription
	nextID    int
	last      Level
	cancel    context.CancelFunc
	done      chan struct{}

	warnLog    rate.Sometimes
	degradeLog sync.Once
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the sampling interval.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithMaxHeapUsage sets the heap usage (bytes) above which pressure is critical.
func WithMaxHeapUsage(bytes uint64) Option {
	return func(m *Monitor) { m.maxHeap = bytes }
}

// WithGCThreshold sets the heap usage (bytes) above which pressure is a warning.
func WithGCThreshold(bytes uint64) Option {
	return func(m *Monitor) { m.gcThreshold = bytes }
}

// WithReader replaces the runtime sample source.
func WithReader(r Reader) Option {
	return func(m *Monitor) {
		if r != nil {
			m.read = r
		}
	}
}

// New creates a Monitor. Thresholds left at zero are derived from each
// sample's HeapTotal (80% critical, 75% warning).
func New(logger *zap.Logger, opts ...Option) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		logger:   logger,
		interval: DefaultInterval,
		read:     ReadRuntime,
		warnLog:  rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers a listener for warning, critical and recovery signals
// and returns a func that removes it.
func (m *Monitor) Subscribe(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, subscription{id: id, fn: l})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.listeners {
			if sub.id == id {
				m.listeners = append(m.listeners[:i:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Listeners returns the number of registered listeners.
func (m *Monitor) Listeners() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

type subscription struct {
	id int
	fn Listener
}

// Start begins sampling until Stop is called or ctx is done.
// Calling Start on a running monitor is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	m.logger.Debug("Memory monitor started", zap.Duration("interval", m.interval))

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.tick()
			}
		}
	}()
}

// Stop halts sampling and waits for the sampling goroutine to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Debug("Memory monitor stopped")
}

// Sample reads current memory statistics. It never fails: when the runtime
// cannot report memory the monitor degrades to a zero sample, which every
// other method treats as "safe".
func (m *Monitor) Sample() Sample {
	s, err := m.read()
	if err != nil {
		m.degradeLog.Do(func() {
			m.logger.Warn("Memory statistics unavailable, treating all work as safe", zap.Error(err))
		})
		return Sample{Timestamp: time.Now()}
	}
	return s
}

// Level classifies a sample against the configured thresholds.
func (m *Monitor) Level(s Sample) Level {
	maxHeap, gc := m.thresholds(s)
	switch {
	case maxHeap > 0 && s.HeapUsed > maxHeap:
		return LevelCritical
	case gc > 0 && s.HeapUsed > gc:
		return LevelWarning
	default:
		return LevelNormal
	}
}

// IsSafeToProcess reports whether a file of the given size can be processed
// with the heap currently available.
func (m *Monitor) IsSafeToProcess(fileSize int64) bool {
	s := m.Sample()
	if s.degraded() {
		return true
	}
	required := float64(fileSize) * RecommendedMultiplier
	return required <= float64(s.Available())
}

// RecommendedChunkSize returns a read chunk size that grows with available
// memory and shrinks under pressure, never below MinChunkSize.
func (m *Monitor) RecommendedChunkSize() int {
	s := m.Sample()
	return max(MinChunkSize, int(float64(s.Available())*chunkRatio))
}

func (m *Monitor) thresholds(s Sample) (maxHeap, gc uint64) {
	maxHeap, gc = m.maxHeap, m.gcThreshold
	if maxHeap == 0 {
		maxHeap = uint64(float64(s.HeapTotal) * maxHeapRatio)
	}
	if gc == 0 {
		gc = uint64(float64(s.HeapTotal) * gcRatio)
	}
	return maxHeap, gc
}

// tick runs one sampling pass and notifies listeners.
func (m *Monitor) tick() {
	s := m.Sample()
	level := m.Level(s)

	m.mu.Lock()
	prev := m.last
	m.last = level
	listeners := append([]subscription(nil), m.listeners...)
	m.mu.Unlock()

	var signals []Signal
	switch level {
	case LevelWarning:
		m.warnLog.Do(func() {
			m.logger.Warn("Memory usage above GC threshold",
				zap.Uint64("heapUsed", s.HeapUsed),
				zap.Uint64("heapTotal", s.HeapTotal))
		})
		signals = append(signals, SignalWarning)
	case LevelCritical:
		m.logger.Warn("Memory usage critical",
			zap.Uint64("heapUsed", s.HeapUsed),
			zap.Uint64("heapTotal", s.HeapTotal),
			zap.Uint64("rss", s.RSS),
			zap.Uint64("peakRSS", s.PeakRSS))
		signals = append(signals, SignalCritical)
	}
	if prev == LevelCritical && level != LevelCritical {
		m.logger.Info("Memory pressure recovered", zap.Stringer("level", level))
		signals = append(signals, SignalRecovered)
	}

	for _, sig := range signals {
		for _, sub := range listeners {
			sub.fn(sig, s)
		}
	}
}
