package handoff

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ygrebnov/errorc"
)

// Feeder drains one Source into a Queue, one item at a time.
//
// It stops when the source is exhausted, when the queue refuses an item because it
// was closed, when ctx ends, or when the source fails. Only the last case is an error.
// A Feeder runs at most once.
type Feeder[T any] struct {
	name string
	src  Source[T]
	q    *Queue[T]

	cfg *config
	em  emitter
	ins *instruments

	produced atomic.Int64
	ran      atomic.Bool
}

// NewFeeder creates a standalone feeder. Orchestrator.AddFeeder is the usual way to get one.
func NewFeeder[T any](name string, src Source[T], q *Queue[T], opts ...Option) (*Feeder[T], error) {
	if src == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("source", "must not be nil"))
	}
	if q == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("queue", "must not be nil"))
	}
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}
	return newFeeder(name, src, q, &cfg, emitter{cfg: &cfg}, newInstruments(cfg.Metrics)), nil
}

func newFeeder[T any](name string, src Source[T], q *Queue[T], cfg *config, em emitter, ins *instruments) *Feeder[T] {
	return &Feeder[T]{name: name, src: src, q: q, cfg: cfg, em: em, ins: ins}
}

// Name returns the feeder name used in logs, events and errors.
func (f *Feeder[T]) Name() string { return f.name }

// Produced returns the number of items accepted by the queue so far.
func (f *Feeder[T]) Produced() int { return int(f.produced.Load()) }

// Run feeds the queue and returns the produced count. The error is nil unless the
// source failed or panicked, in which case it is a *FeedError carrying the count.
// Calling Run a second time returns ErrInvalidState.
func (f *Feeder[T]) Run(ctx context.Context) (produced int, err error) {
	if !f.ran.CompareAndSwap(false, true) {
		return f.Produced(), ErrInvalidState
	}
	f.em.emit(Event{Kind: EventFeederStarted, Component: f.name})

	defer func() {
		if r := recover(); r != nil {
			err = newFeedError(ErrSourcePanicked, fmt.Errorf("%v", r), f.name, f.Produced())
		}
		produced = f.Produced()
		if err != nil {
			f.ins.feederErrors.Add(1)
			f.em.emit(Event{Kind: EventFeederFailed, Component: f.name, Count: produced, Err: err})
			return
		}
		f.em.emit(Event{Kind: EventFeederDone, Component: f.name, Count: produced})
	}()

	for item, rerr := range f.src {
		if rerr != nil {
			return 0, newFeedError(ErrSourceFailed, rerr, f.name, f.Produced())
		}

		start := time.Now()
		if perr := f.q.PutContext(ctx, item); perr != nil {
			// Queue closed or ctx done: remaining source items are dropped.
			f.cfg.Logger.V(logDebug).Info("Feeder stopped early", "feeder", f.name, "reason", perr.Error())
			return 0, nil
		}
		f.ins.putWait.Record(time.Since(start).Seconds())
		f.ins.produced.Add(1)
		f.produced.Add(1)

		f.em.emit(Event{Kind: EventItemProduced, Component: f.name, Item: item, QueueSize: f.q.Size()})
	}
	return 0, nil
}
