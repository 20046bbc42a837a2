// Package handoff provides a bounded, goroutine-safe hand-off queue and an
// orchestrator that moves items from any number of feeders (producers) to any
// number of drainers (consumers) with a graceful, one-way shutdown.
//
// Components
//   - Queue: fixed-capacity FIFO with blocking Put/Get, bounded GetTimeout,
//     context-aware and non-blocking variants, and an idempotent Close.
//   - Feeder: drains one finite Source into the queue, honoring backpressure.
//   - Drainer: polls the queue into a shared Sink until stopped or drained.
//   - Orchestrator: owns one queue and one sink, starts drainers then feeders,
//     and on AwaitCompletion waits for feeders, closes the queue, waits for drainers.
//
// Signals versus errors
// A Put that returns false (queue closed), a GetTimeout that returns false on an
// open queue (try again) and a Get that returns false on a closed empty queue
// (done) are control flow, not failures. A Source that cannot produce its next
// item is the only hard error; it is reported by AwaitCompletion as a *FeedError
// carrying the feeder name and how many items it delivered. Registering feeders or
// drainers after Start fails fast with ErrAlreadyStarted.
//
// Defaults
//   - PollInterval: 50ms
//   - StopOnError: false
//   - Logger: logr.Discard()
//   - Metrics: metrics.NoopProvider
//
// Ordering
// The queue keeps one global FIFO order across all feeders. With a single drainer
// the sink preserves it; with several, appends interleave but each item is
// delivered exactly once.
package handoff
