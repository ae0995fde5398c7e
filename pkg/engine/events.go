package engine

import "promptpack/pkg/memory"

// EventKind identifies an Event.
type EventKind int

const (
	EventProgress EventKind = iota
	EventMemoryWarning
	EventMemoryCritical
	EventWorkerExit
	EventWorkerError
	EventBatchComplete
)

func (k EventKind) String() string {
	switch k {
	case EventProgress:
		return "progress"
	case EventMemoryWarning:
		return "memory-warning"
	case EventMemoryCritical:
		return "memory-critical"
	case EventWorkerExit:
		return "worker-exit"
	case EventWorkerError:
		return "worker-error"
	case EventBatchComplete:
		return "batch-complete"
	default:
		return "unknown"
	}
}

// Event is delivered to observers. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind

	// EventProgress
	FilePath       string
	BytesProcessed int64

	// EventMemoryWarning, EventMemoryCritical
	Memory memory.Sample

	// EventWorkerExit, EventWorkerError
	WorkerID int
	ExitCode int
	Err      error

	// EventBatchComplete
	Batch *Batch
}

// Observer receives pool events.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

type observers []Observer

func (obs observers) emit(e Event) {
	for _, o := range obs {
		o.Observe(e)
	}
}
