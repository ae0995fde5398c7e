package engine

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

type slotState int

const (
	slotIdle slotState = iota
	slotBusy
	slotTerminating
)

type control int

const (
	controlPause control = iota
	controlResume
	controlCleanup
)

// job is a submitted task waiting for its result.
type job struct {
	index int
	task  Task
	done  chan<- Result
}

// slot is one worker: a goroutine with a task mailbox and a control channel.
// Its fields other than the channels are owned by the pool loop.
type slot struct {
	id      int
	state   slotState
	current *job

	tasks   chan *job
	control chan control
	ack     chan struct{}
	cancel  context.CancelFunc
	logger  *zap.Logger
}

// reply is sent from a worker goroutine to the pool loop.
type reply struct {
	slot     *slot
	job      *job
	progress int64 // > 0 for progress notifications
	result   Result
	err      error
	crash    *crash
}

type crash struct {
	value any
	stack string
}

func newSlot(id int, logger *zap.Logger) *slot {
	return &slot{
		id:      id,
		tasks:   make(chan *job, 1),
		control: make(chan control, 4),
		ack:     make(chan struct{}, 1),
		logger:  logger.With(zap.Int("workerID", id)),
	}
}

// run is the worker goroutine. It returns after acknowledging cleanup,
// after a crash, or when ctx is done.
func (s *slot) run(ctx context.Context, replies chan<- reply, process ProcessFunc) {
	s.logger.Debug("Worker started")
	paused := false
	for {
		if paused {
			select {
			case <-ctx.Done():
				return
			case c := <-s.control:
				if s.handleControl(c, &paused) {
					return
				}
			}
			continue
		}

		select {
		case <-ctx.Done():
			return
		case c := <-s.control:
			if s.handleControl(c, &paused) {
				return
			}
		case j := <-s.tasks:
			r := s.execute(ctx, j, replies, process)
			select {
			case replies <- r:
			case <-ctx.Done():
				return
			}
			if r.crash != nil {
				return
			}
		}
	}
}

// handleControl applies c and reports whether the worker should exit.
func (s *slot) handleControl(c control, paused *bool) bool {
	switch c {
	case controlPause:
		*paused = true
	case controlResume:
		*paused = false
	case controlCleanup:
		s.logger.Debug("Worker acknowledged cleanup")
		s.ack <- struct{}{}
		return true
	}
	return false
}

// execute runs process for j, converting a panic into a crash reply.
func (s *slot) execute(ctx context.Context, j *job, replies chan<- reply, process ProcessFunc) (r reply) {
	r = reply{slot: s, job: j}
	defer func() {
		if v := recover(); v != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			r.crash = &crash{value: v, stack: string(buf[:n])}
			r.err = fmt.Errorf("%w: %s: %v", ErrWorkerLost, j.task.FilePath, v)
		}
	}()

	progress := func(bytes int64) {
		if bytes <= 0 {
			return
		}
		select {
		case replies <- reply{slot: s, job: j, progress: bytes}:
		case <-ctx.Done():
		}
	}
	r.result, r.err = process(ctx, j.task, progress)
	return r
}
