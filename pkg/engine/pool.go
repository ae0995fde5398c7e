package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"promptpack/pkg/compact"
	"promptpack/pkg/memory"
)

// PoolOption configures a Pool.
type PoolOption func(*poolConfig)

type poolConfig struct {
	monitor        *memory.Monitor
	observers      observers
	formatter      Formatter
	compactor      *compact.Compactor
	process        ProcessFunc
	cleanupTimeout time.Duration
}

// WithMonitor shares an existing memory monitor instead of creating one from
// the options. The pool starts it if it is not running yet but never stops it.
func WithMonitor(m *memory.Monitor) PoolOption {
	return func(c *poolConfig) { c.monitor = m }
}

// WithObserver registers an event observer.
func WithObserver(o Observer) PoolOption {
	return func(c *poolConfig) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	}
}

// WithFormatter replaces the default HeaderFormatter.
func WithFormatter(f Formatter) PoolOption {
	return func(c *poolConfig) { c.formatter = f }
}

// WithCompactor replaces the compactor built from the options.
func WithCompactor(cp *compact.Compactor) PoolOption {
	return func(c *poolConfig) { c.compactor = cp }
}

// WithProcessFunc replaces the per-file processing step.
func WithProcessFunc(fn ProcessFunc) PoolOption {
	return func(c *poolConfig) { c.process = fn }
}

// WithCleanupTimeout bounds how long Cleanup waits for workers to acknowledge.
func WithCleanupTimeout(d time.Duration) PoolOption {
	return func(c *poolConfig) {
		if d > 0 {
			c.cleanupTimeout = d
		}
	}
}

// newConfig applies popts and fills in everything left unset.
func newConfig(opts Options, logger *zap.Logger, popts []PoolOption) (poolConfig, bool) {
	cfg := poolConfig{cleanupTimeout: DefaultCleanupTimeout}
	for _, o := range popts {
		o(&cfg)
	}
	ownsMonitor := false
	if cfg.monitor == nil {
		cfg.monitor = memory.New(logger.Named("memory"),
			memory.WithInterval(opts.MemoryCheckInterval),
			memory.WithMaxHeapUsage(opts.MaxHeapUsage),
			memory.WithGCThreshold(opts.GCThreshold))
		ownsMonitor = true
	}
	if cfg.formatter == nil {
		cfg.formatter = HeaderFormatter{}
	}
	if cfg.compactor == nil {
		cfg.compactor = compact.New(opts.compactConfig(), logger.Named("compact"))
	}
	if cfg.process == nil {
		p := &processor{
			logger:    logger,
			monitor:   cfg.monitor,
			compactor: cfg.compactor,
			formatter: cfg.formatter,
		}
		cfg.process = p.process
	}
	return cfg, ownsMonitor
}

type commandKind int

const (
	cmdPause commandKind = iota
	cmdResume
	cmdClose
)

type command struct {
	kind  commandKind
	slots chan []*slot // cmdClose: receives the slots to wait for
}

type memorySignal struct {
	signal memory.Signal
	sample memory.Sample
}

// Pool runs file tasks on a fixed number of worker slots. A single loop
// goroutine owns the slots and the FIFO queue; workers start lazily on the
// first submission. A Pool must be released with Cleanup.
type Pool struct {
	opts        Options
	cfg         poolConfig
	ownsMonitor bool
	logger      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	submitCh chan *job
	replyCh  chan reply
	memCh    chan struct{} // wakes the loop; the signal itself is in memLatest
	cmdCh    chan command
	loopDone chan struct{}

	memLatest   atomic.Pointer[memorySignal]
	unsubscribe func()

	startOnce sync.Once
	started   atomic.Bool
	closed    atomic.Bool

	// owned by the loop goroutine
	slots     []*slot
	queue     []*job
	userPause bool
	memPause  bool
	closing   bool
}

// NewPool creates a pool for opts. A nil logger disables logging.
func NewPool(opts Options, logger *zap.Logger, popts ...PoolOption) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = runtime.NumCPU()
		logger.Debug("Adjusted worker count", zap.Int("workers", opts.MaxWorkers))
	}
	cfg, owns := newConfig(opts, logger, popts)
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		opts:        opts,
		cfg:         cfg,
		ownsMonitor: owns,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		submitCh:    make(chan *job),
		replyCh:     make(chan reply),
		memCh:       make(chan struct{}, 1),
		cmdCh:       make(chan command),
		loopDone:    make(chan struct{}),
		slots:       make([]*slot, opts.MaxWorkers),
	}
}

// Options returns the options the pool processes files with.
func (p *Pool) Options() Options {
	return p.opts
}

func (p *Pool) start() {
	p.startOnce.Do(func() {
		// Signals are coalesced: the loop only ever sees the latest one,
		// which always reflects the current pressure level.
		p.unsubscribe = p.cfg.monitor.Subscribe(func(sig memory.Signal, s memory.Sample) {
			p.memLatest.Store(&memorySignal{signal: sig, sample: s})
			select {
			case p.memCh <- struct{}{}:
			default:
			}
		})
		p.cfg.monitor.Start(p.ctx)
		p.started.Store(true)
		go p.loop()
		p.logger.Debug("Worker pool started", zap.Int("workers", p.opts.MaxWorkers))
	})
}

// ProcessFile processes a single file and waits for its result. Failures
// are reported in Result.Err, never as a panic or a separate error.
func (p *Pool) ProcessFile(ctx context.Context, path string) Result {
	done := make(chan Result, 1)
	p.submit(&job{index: 0, task: p.task(path), done: done})
	select {
	case r := <-done:
		return r
	case <-ctx.Done():
		return failure(0, path, ctx.Err(), "")
	}
}

// ProcessBatch processes files concurrently and returns once every file has
// a result or ctx is done. Files that did not finish before ctx was done
// are reported as errors. Each file appears exactly once in the batch.
func (p *Pool) ProcessBatch(ctx context.Context, files []string) *Batch {
	batch := &Batch{}
	if len(files) == 0 {
		p.cfg.observers.emit(Event{Kind: EventBatchComplete, Batch: batch})
		return batch
	}

	done := make(chan Result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i, f := range files {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			p.submit(&job{index: i, task: p.task(f), done: done})
		}
		return nil
	})

	seen := make([]bool, len(files))
collect:
	for range files {
		select {
		case r := <-done:
			seen[r.Index] = true
			batch.add(r)
		case <-ctx.Done():
			break collect
		}
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		for i, ok := range seen {
			if !ok {
				batch.add(failure(i, files[i], err, ""))
			}
		}
	}

	p.logger.Debug("Batch complete",
		zap.Int("processed", len(batch.Results)),
		zap.Int("failed", len(batch.Errors)))
	p.cfg.observers.emit(Event{Kind: EventBatchComplete, Batch: batch})
	return batch
}

func (p *Pool) task(path string) Task {
	return Task{FilePath: path, Options: p.opts}
}

func (p *Pool) submit(j *job) {
	if p.closed.Load() {
		j.done <- failure(j.index, j.task.FilePath, ErrPoolClosed, "")
		return
	}
	p.start()
	select {
	case p.submitCh <- j:
	case <-p.ctx.Done():
		j.done <- failure(j.index, j.task.FilePath, ErrPoolClosed, "")
	}
}

// Pause stops dispatching queued tasks and tells every worker to pause.
// Tasks already running finish.
func (p *Pool) Pause() {
	p.command(command{kind: cmdPause})
}

// Resume undoes Pause. Dispatching stays stopped while memory is critical.
func (p *Pool) Resume() {
	p.command(command{kind: cmdResume})
}

func (p *Pool) command(c command) {
	if p.closed.Load() {
		return
	}
	p.start()
	select {
	case p.cmdCh <- c:
	case <-p.ctx.Done():
	}
}

// Cleanup stops the pool. It tells every worker to finish, waits up to the
// cleanup timeout for their acknowledgements and then abandons the rest.
// Queued and abandoned tasks fail with ErrPoolClosed. Calling Cleanup more
// than once is a no-op.
func (p *Pool) Cleanup(ctx context.Context) error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !p.started.Load() {
		p.cancel()
		return nil
	}

	resp := make(chan []*slot, 1)
	var slots []*slot
	select {
	case p.cmdCh <- command{kind: cmdClose, slots: resp}:
		slots = <-resp
	case <-p.ctx.Done():
	}

	wctx, cancel := context.WithTimeout(ctx, p.cfg.cleanupTimeout)
	defer cancel()
	g, gctx := errgroup.WithContext(wctx)
	for _, s := range slots {
		s := s
		g.Go(func() error {
			select {
			case <-s.ack:
			case <-gctx.Done():
				s.logger.Warn("Worker did not acknowledge cleanup, abandoning it")
			}
			return nil
		})
	}
	_ = g.Wait()

	p.unsubscribe()
	if p.ownsMonitor {
		p.cfg.monitor.Stop()
	}
	p.cancel()
	<-p.loopDone
	p.logger.Debug("Worker pool stopped")
	return nil
}

func (p *Pool) loop() {
	defer close(p.loopDone)
	for {
		select {
		case <-p.ctx.Done():
			p.abandon()
			return
		case j := <-p.submitCh:
			if p.closing {
				j.done <- failure(j.index, j.task.FilePath, ErrPoolClosed, "")
				continue
			}
			p.queue = append(p.queue, j)
			p.dispatch()
		case r := <-p.replyCh:
			p.handleReply(r)
		case <-p.memCh:
			if m := p.memLatest.Swap(nil); m != nil {
				p.handleMemory(*m)
			}
		case c := <-p.cmdCh:
			p.handleCommand(c)
		}
	}
}

func (p *Pool) paused() bool {
	return p.userPause || p.memPause
}

// dispatch hands queued tasks to idle slots, spawning slots on first use.
func (p *Pool) dispatch() {
	if p.paused() || p.closing {
		return
	}
	for len(p.queue) > 0 {
		s := p.idleSlot()
		if s == nil {
			return
		}
		j := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		s.state = slotBusy
		s.current = j
		s.tasks <- j
	}
}

func (p *Pool) idleSlot() *slot {
	for i, s := range p.slots {
		if s == nil {
			s = p.spawn(i)
		}
		if s.state == slotIdle {
			return s
		}
	}
	return nil
}

func (p *Pool) spawn(id int) *slot {
	s := newSlot(id, p.logger)
	ctx, cancel := context.WithCancel(p.ctx)
	s.cancel = cancel
	p.slots[id] = s
	go s.run(ctx, p.replyCh, p.cfg.process)
	return s
}

func (p *Pool) handleReply(r reply) {
	if r.progress > 0 {
		p.cfg.observers.emit(Event{
			Kind:           EventProgress,
			FilePath:       r.job.task.FilePath,
			BytesProcessed: r.progress,
		})
		return
	}

	s := r.slot
	s.current = nil
	if r.crash != nil {
		p.handleCrash(s, r)
		return
	}

	s.state = slotIdle
	j := r.job
	if r.err != nil {
		p.logger.Debug("File processing failed", zap.String("file", j.task.FilePath), zap.Error(r.err))
		j.done <- failure(j.index, j.task.FilePath, r.err, "")
	} else {
		res := r.result
		res.Index = j.index
		res.FilePath = j.task.FilePath
		j.done <- res
	}
	p.dispatch()
}

// handleCrash fails the task a worker was running and replaces the worker
// with a fresh one under the same id.
func (p *Pool) handleCrash(s *slot, r reply) {
	s.state = slotTerminating
	s.cancel()
	s.logger.Error("Worker crashed",
		zap.String("file", r.job.task.FilePath),
		zap.Any("panic", r.crash.value),
		zap.String("stack", r.crash.stack))

	p.cfg.observers.emit(Event{Kind: EventWorkerError, WorkerID: s.id, Err: r.err})
	p.cfg.observers.emit(Event{Kind: EventWorkerExit, WorkerID: s.id, ExitCode: 1})
	r.job.done <- failure(r.job.index, r.job.task.FilePath, r.err, r.crash.stack)

	if p.closing {
		s.ack <- struct{}{}
		return
	}
	replacement := p.spawn(s.id)
	if p.paused() {
		replacement.control <- controlPause
	}
	p.dispatch()
}

// handleMemory pauses on critical pressure and resumes on any signal that
// is not critical, so a missed recovery is made up by the next warning.
func (p *Pool) handleMemory(m memorySignal) {
	switch m.signal {
	case memory.SignalWarning:
		p.cfg.observers.emit(Event{Kind: EventMemoryWarning, Memory: m.sample})
		p.memoryRecovered()
	case memory.SignalCritical:
		p.cfg.observers.emit(Event{Kind: EventMemoryCritical, Memory: m.sample})
		if !p.memPause {
			p.logger.Warn("Memory critical, pausing workers",
				zap.Uint64("heapUsed", m.sample.HeapUsed),
				zap.Uint64("heapTotal", m.sample.HeapTotal))
			wasPaused := p.paused()
			p.memPause = true
			if !wasPaused {
				p.broadcast(controlPause)
			}
		}
		runtime.GC()
		runtime.Gosched()
	case memory.SignalRecovered:
		p.memoryRecovered()
	}
}

func (p *Pool) memoryRecovered() {
	if !p.memPause {
		return
	}
	p.logger.Info("Memory recovered, resuming workers")
	p.memPause = false
	if !p.paused() {
		p.broadcast(controlResume)
		p.dispatch()
	}
}

func (p *Pool) handleCommand(c command) {
	switch c.kind {
	case cmdPause:
		if !p.userPause {
			wasPaused := p.paused()
			p.userPause = true
			if !wasPaused {
				p.broadcast(controlPause)
			}
		}
	case cmdResume:
		if p.userPause {
			p.userPause = false
			if !p.paused() {
				p.broadcast(controlResume)
				p.dispatch()
			}
		}
	case cmdClose:
		p.closing = true
		for _, j := range p.queue {
			j.done <- failure(j.index, j.task.FilePath, ErrPoolClosed, "")
		}
		p.queue = nil
		var live []*slot
		for _, s := range p.slots {
			if s == nil || s.state == slotTerminating {
				continue
			}
			live = append(live, s)
		}
		p.broadcast(controlCleanup)
		c.slots <- live
	}
}

func (p *Pool) broadcast(c control) {
	for _, s := range p.slots {
		if s == nil || s.state == slotTerminating {
			continue
		}
		select {
		case s.control <- c:
		default:
			s.logger.Warn("Worker control channel full, dropping message", zap.Int("control", int(c)))
		}
	}
}

// abandon fails every task still owned by the pool once it is cancelled.
func (p *Pool) abandon() {
	for _, s := range p.slots {
		if s == nil || s.current == nil {
			continue
		}
		j := s.current
		s.current = nil
		j.done <- failure(j.index, j.task.FilePath, ErrPoolClosed, "")
	}
	for _, j := range p.queue {
		j.done <- failure(j.index, j.task.FilePath, ErrPoolClosed, "")
	}
	p.queue = nil
}
