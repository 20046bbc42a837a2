package handoff

import (
	"sync/atomic"

	"github.com/ygrebnov/errorc"
)

// Drainer moves items from a Queue into a Sink until it is stopped or the queue is
// closed and drained. It polls with a bounded wait so Stop is observed even while
// the queue stays empty and open. A Drainer runs at most once.
type Drainer[T any] struct {
	name string
	q    *Queue[T]
	sink Sink[T]

	cfg *config
	em  emitter
	ins *instruments

	running  atomic.Bool
	consumed atomic.Int64
	ran      atomic.Bool
}

// NewDrainer creates a standalone drainer. Orchestrator.AddDrainer is the usual way to get one.
func NewDrainer[T any](name string, q *Queue[T], sink Sink[T], opts ...Option) (*Drainer[T], error) {
	if q == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("queue", "must not be nil"))
	}
	if sink == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("sink", "must not be nil"))
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newDrainer(name, q, sink, &cfg, emitter{cfg: &cfg}, newInstruments(cfg.Metrics)), nil
}

func newDrainer[T any](name string, q *Queue[T], sink Sink[T], cfg *config, em emitter, ins *instruments) *Drainer[T] {
	d := &Drainer[T]{name: name, q: q, sink: sink, cfg: cfg, em: em, ins: ins}
	d.running.Store(true)
	return d
}

// Name returns the drainer name used in logs and events.
func (d *Drainer[T]) Name() string { return d.name }

// Consumed returns the number of items appended to the sink so far.
func (d *Drainer[T]) Consumed() int { return int(d.consumed.Load()) }

// Stop asks the drainer to exit. It is safe to call at any time, including before
// Run, and takes effect at the next poll boundary; a wait in progress is not interrupted.
// Under an Orchestrator, stopping the last running drainer cancels the feeders.
func (d *Drainer[T]) Stop() { d.running.Store(false) }

// Run drains until stopped or until the queue is closed and empty, and returns
// the consumed count. Calling Run a second time returns immediately.
func (d *Drainer[T]) Run() int {
	if !d.ran.CompareAndSwap(false, true) {
		return d.Consumed()
	}
	d.em.emit(Event{Kind: EventDrainerStarted, Component: d.name})

	for d.running.Load() {
		item, ok := d.q.GetTimeout(d.cfg.PollInterval)
		if ok {
			d.sink.Append(item)
			d.consumed.Add(1)
			d.ins.consumed.Add(1)
			d.em.emit(Event{Kind: EventItemConsumed, Component: d.name, Item: item, QueueSize: d.q.Size()})
			continue
		}
		if d.q.Drained() {
			d.em.emit(Event{Kind: EventDrainerDone, Component: d.name, Count: d.Consumed()})
			return d.Consumed()
		}
	}

	d.em.emit(Event{Kind: EventDrainerStopped, Component: d.name, Count: d.Consumed()})
	return d.Consumed()
}
