package handoff

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ygrebnov/errorc"
)

// Orchestrator owns one Queue and one Sink, runs the registered feeders and
// drainers, and sequences a graceful shutdown.
//
// Lifecycle: register with AddFeeder/AddDrainer, call Start, then AwaitCompletion.
// AwaitCompletion waits for every feeder, closes the queue exactly once, waits for
// every drainer and returns the aggregated source failures. Results is valid at any
// time and stable once AwaitCompletion has returned.
//
// Orchestrator methods are safe for concurrent use. Instances are independent.
type Orchestrator[T any] struct {
	// noCopy prevents accidental copying of the controller.
	//go:nocopy
	nc noCopy

	cfg   config
	runID string
	em    emitter
	ins   *instruments

	queue *Queue[T]
	sink  Sink[T]

	mu       sync.Mutex
	started  bool
	feeders  []*Feeder[T]
	drainers []*Drainer[T]

	startOnce sync.Once

	// feeders' shared context; canceled on StopOnError
	ctx    context.Context
	cancel context.CancelFunc

	feedersWG   sync.WaitGroup
	drainersWG  sync.WaitGroup
	collectorWG sync.WaitGroup

	// drainers still running; the last one out cancels feeders if the queue is not drained
	liveDrainers atomic.Int64

	// feeder failures, buffered to the number of feeders so senders never block
	errs      chan error
	collector *errorCollector

	lc *lifecycleCoordinator
}

// New creates an orchestrator whose queue holds at most capacity items.
func New[T any](capacity int, opts ...Option) (*Orchestrator[T], error) {
	cfg, err := buildConfig(opts)
	if err != nil {
		return nil, err
	}

	q, err := NewQueue[T](capacity)
	if err != nil {
		return nil, err
	}

	var sink Sink[T]
	switch s := cfg.Sink.(type) {
	case nil:
		sink = NewSliceSink[T](0)
	case Sink[T]:
		sink = s
	default:
		return nil, errorc.With(ErrInvalidConfig, errorc.String("sink", fmt.Sprintf("%T does not implement Sink for this item type", s)))
	}

	o := &Orchestrator[T]{
		cfg:   cfg,
		runID: uuid.NewString(),
		queue: q,
		sink:  sink,
	}
	o.em = emitter{cfg: &o.cfg, runID: o.runID}
	o.ins = newInstruments(cfg.Metrics)
	q.onDepth = o.ins.depth.Add
	return o, nil
}

// RunID identifies this orchestrator in logs and events.
func (o *Orchestrator[T]) RunID() string { return o.runID }

// Queue returns the shared queue.
func (o *Orchestrator[T]) Queue() *Queue[T] { return o.queue }

// AddFeeder registers a feeder named "feeder-N" for src. It does not start it.
// After Start it fails with ErrAlreadyStarted.
func (o *Orchestrator[T]) AddFeeder(src Source[T]) (*Feeder[T], error) {
	return o.AddFeederNamed("", src)
}

// AddFeederNamed is AddFeeder with an explicit name; an empty name gets the default.
func (o *Orchestrator[T]) AddFeederNamed(name string, src Source[T]) (*Feeder[T], error) {
	if src == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("source", "must not be nil"))
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return nil, ErrAlreadyStarted
	}
	if name == "" {
		name = fmt.Sprintf("feeder-%d", len(o.feeders)+1)
	}
	f := newFeeder(name, src, o.queue, &o.cfg, o.em, o.ins)
	o.feeders = append(o.feeders, f)
	return f, nil
}

// AddDrainer registers a drainer named "drainer-N". It does not start it.
// After Start it fails with ErrAlreadyStarted.
func (o *Orchestrator[T]) AddDrainer() (*Drainer[T], error) {
	return o.AddDrainerNamed("")
}

// AddDrainerNamed is AddDrainer with an explicit name; an empty name gets the default.
func (o *Orchestrator[T]) AddDrainerNamed(name string) (*Drainer[T], error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return nil, ErrAlreadyStarted
	}
	if name == "" {
		name = fmt.Sprintf("drainer-%d", len(o.drainers)+1)
	}
	d := newDrainer(name, o.queue, o.sink, &o.cfg, o.em, o.ins)
	o.drainers = append(o.drainers, d)
	return d, nil
}

// Feeders returns the registered feeders.
func (o *Orchestrator[T]) Feeders() []*Feeder[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Feeder[T](nil), o.feeders...)
}

// Drainers returns the registered drainers.
func (o *Orchestrator[T]) Drainers() []*Drainer[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Drainer[T](nil), o.drainers...)
}

// Start launches every drainer, then every feeder. Drainers go first so they are
// ready to relieve backpressure; correctness does not depend on the order.
// ctx bounds the feeders only: when it ends, feeders stop at their next item and the
// shutdown sequence proceeds normally. Subsequent calls are no-ops.
func (o *Orchestrator[T]) Start(ctx context.Context) {
	o.startOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}

		o.mu.Lock()
		o.started = true
		feeders := o.feeders
		drainers := o.drainers
		o.mu.Unlock()

		o.ctx, o.cancel = context.WithCancel(ctx)
		o.errs = make(chan error, len(feeders))

		var onError context.CancelFunc
		if o.cfg.StopOnError {
			onError = o.cancel
		}
		o.collector = newErrorCollector(o.errs, onError)
		o.collectorWG.Add(1)
		go func() {
			defer o.collectorWG.Done()
			o.collector.run()
		}()

		o.lc = newLifecycleCoordinator(
			&o.feedersWG,
			func() { close(o.errs) },
			&o.collectorWG,
			o.closeQueue,
			&o.drainersWG,
			func() { o.cancel() },
		)

		o.cfg.Logger.V(logVerbose).Info("Starting hand-off run", "run", o.runID,
			"capacity", o.queue.Cap(), "feeders", len(feeders), "drainers", len(drainers))

		o.drainersWG.Add(len(drainers))
		o.liveDrainers.Store(int64(len(drainers)))
		for _, d := range drainers {
			go func(d *Drainer[T]) {
				defer o.drainersWG.Done()
				d.Run()
				o.drainerExited(d)
			}(d)
		}

		o.feedersWG.Add(len(feeders))
		for _, f := range feeders {
			go func(f *Feeder[T]) {
				defer o.feedersWG.Done()
				if _, err := f.Run(o.ctx); err != nil {
					o.errs <- err
				}
			}(f)
		}
	})
}

// AwaitCompletion blocks until the run has shut down and returns the aggregated
// source failures (nil if none). It returns ErrNotStarted before Start.
// It is safe to call more than once and from several goroutines.
//
// If every drainer is stopped through its handle before the queue drains, the
// feeders are canceled so the shutdown still completes; items left in the queue
// are not delivered. A run with no drainers at all completes only if the sources
// fit in the queue.
func (o *Orchestrator[T]) AwaitCompletion() error {
	o.mu.Lock()
	started := o.started
	o.mu.Unlock()
	if !started {
		return ErrNotStarted
	}
	// Start may still be inside startOnce; Do blocks until it returns.
	o.startOnce.Do(func() {})

	o.lc.Await()
	o.cfg.Logger.V(logVerbose).Info("Hand-off run complete", "run", o.runID,
		"results", o.sink.Len(), "errors", len(o.collector.errors()))
	return o.collector.result()
}

// Results returns a snapshot of the sink.
func (o *Orchestrator[T]) Results() []T { return o.sink.Snapshot() }

// Errors returns the individual feeder failures collected so far.
func (o *Orchestrator[T]) Errors() []error {
	o.mu.Lock()
	started := o.started
	o.mu.Unlock()
	if !started {
		return nil
	}
	o.startOnce.Do(func() {})
	return o.collector.errors()
}

// Stats summarizes item counts across all feeders and drainers.
type Stats struct {
	Produced int
	Consumed int
	Buffered int
}

// Stats returns a point-in-time summary.
func (o *Orchestrator[T]) Stats() Stats {
	var s Stats
	for _, f := range o.Feeders() {
		s.Produced += f.Produced()
	}
	for _, d := range o.Drainers() {
		s.Consumed += d.Consumed()
	}
	s.Buffered = o.queue.Size()
	return s
}

// drainerExited cancels the feeders once the last drainer has returned while the
// queue is not yet drained (every drainer was stopped through its handle).
// Nothing can empty the queue after that, so feeders blocked on it would never return.
func (o *Orchestrator[T]) drainerExited(d *Drainer[T]) {
	if o.liveDrainers.Add(-1) > 0 || o.queue.Drained() {
		return
	}
	o.cfg.Logger.V(logVerbose).Info("All drainers stopped before the queue drained; canceling feeders",
		"run", o.runID, "lastDrainer", d.Name(), "buffered", o.queue.Size())
	o.cancel()
}

func (o *Orchestrator[T]) closeQueue() {
	o.queue.Close()
	o.em.emit(Event{Kind: EventQueueClosed, Component: "orchestrator", QueueSize: o.queue.Size()})
}
