// Package observe carries progress events out of the enumerate-build-confirm-broadcast
// pipeline so that the pipeline itself never writes to the terminal.
package observe

import (
	"cosmossdk.io/log"
)

// Phase names the pipeline stage an event belongs to.
type Phase string

const (
	PhaseConnect   Phase = "connect"
	PhaseEnumerate Phase = "enumerate"
	PhaseBuild     Phase = "build"
	PhaseFee       Phase = "fee"
	PhasePreview   Phase = "preview"
	PhaseConfirm   Phase = "confirm"
	PhaseBroadcast Phase = "broadcast"
	PhaseCleanup   Phase = "cleanup"
)

// Level is the severity of an event.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// Event is one structured progress record.
type Event struct {
	Phase   Phase
	Level   Level
	Message string

	// Count is the number of items produced by this step (page size, messages, ...).
	Count int
	// Total is the running total for the phase, when meaningful.
	Total int
	// Cursor is the pagination cursor in effect, if any.
	Cursor string
	// Fields holds additional key/value pairs.
	Fields map[string]any
}

// Observer receives pipeline events.
type Observer interface {
	Observe(Event)
}

// Func adapts a function to the Observer interface.
type Func func(Event)

// Observe implements Observer.
func (f Func) Observe(e Event) { f(e) }

// Nop discards all events.
var Nop Observer = Func(func(Event) {})

// Multi fans an event out to several observers in order.
func Multi(observers ...Observer) Observer {
	return Func(func(e Event) {
		for _, o := range observers {
			if o != nil {
				o.Observe(e)
			}
		}
	})
}

// Recorder keeps every event it sees. Useful in tests.
type Recorder struct {
	Events []Event
}

// Observe implements Observer.
func (r *Recorder) Observe(e Event) { r.Events = append(r.Events, e) }

// Phase returns the recorded events of one phase.
func (r *Recorder) Phase(p Phase) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Phase == p {
			out = append(out, e)
		}
	}
	return out
}

// Warnings returns the recorded events at LevelWarn or above.
func (r *Recorder) Warnings() []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Level >= LevelWarn {
			out = append(out, e)
		}
	}
	return out
}

type logObserver struct {
	logger log.Logger
}

// NewLogObserver writes events to logger as structured records.
func NewLogObserver(logger log.Logger) Observer {
	return &logObserver{logger: logger}
}

func (o *logObserver) Observe(e Event) {
	kv := []any{"phase", string(e.Phase)}
	if e.Count != 0 {
		kv = append(kv, "count", e.Count)
	}
	if e.Total != 0 {
		kv = append(kv, "total", e.Total)
	}
	if e.Cursor != "" {
		kv = append(kv, "cursor", e.Cursor)
	}
	for k, v := range e.Fields {
		kv = append(kv, k, v)
	}

	switch e.Level {
	case LevelDebug:
		o.logger.Debug(e.Message, kv...)
	case LevelWarn:
		o.logger.Warn(e.Message, kv...)
	case LevelError:
		o.logger.Error(e.Message, kv...)
	default:
		o.logger.Info(e.Message, kv...)
	}
}
