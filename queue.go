package handoff

import (
	"context"
	"sync"
	"time"

	"github.com/ygrebnov/errorc"
)

// Queue is a bounded FIFO hand-off buffer shared by feeders and drainers.
//
// One mutex guards the buffer and the closed flag; notFull and notEmpty are two
// conditions on that mutex. Every blocking operation re-checks its condition after
// each wake-up, so spurious and stolen wake-ups are harmless.
//
// Close is one-way: after it, no item is ever accepted again, while buffered items
// can still be taken until the queue is drained.
//
// Queue must not be copied after first use.
type Queue[T any] struct {
	//go:nocopy
	nc noCopy

	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	buf    []T
	head   int
	count  int
	closed bool

	// onDepth, when set, is called with +1/-1 under mu on every accepted put and
	// every get, so a depth gauge fed by it never leaves [0, capacity].
	onDepth func(delta int64)
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

type putStatus int

const (
	putAccepted putStatus = iota
	putClosed
	putAbandoned
)

type getStatus int

const (
	getItem getStatus = iota
	getDrained
	getAbandoned
)

// NewQueue creates a queue holding at most capacity items (must be >= 1).
func NewQueue[T any](capacity int) (*Queue[T], error) {
	if capacity < 1 {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("capacity", "queue capacity must be >= 1"))
	}
	q := &Queue[T]{buf: make([]T, capacity)}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q, nil
}

// Put appends item to the tail, blocking while the queue is full and open.
// It returns false without enqueueing when the queue is closed, including when it
// gets closed while Put is waiting.
func (q *Queue[T]) Put(item T) bool {
	return q.put(item, never) == putAccepted
}

// PutContext is Put bounded by ctx. It returns nil when the item was accepted,
// ErrQueueClosed when the queue is closed, or ctx.Err() when ctx ends first.
func (q *Queue[T]) PutContext(ctx context.Context, item T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { q.wake(q.notFull) })
	defer stop()

	switch q.put(item, func() bool { return ctx.Err() != nil }) {
	case putAccepted:
		return nil
	case putClosed:
		return ErrQueueClosed
	default:
		return ctx.Err()
	}
}

// TryPut enqueues item only if that does not require waiting.
// It returns ErrWouldBlock on a full queue and ErrQueueClosed on a closed one.
func (q *Queue[T]) TryPut(item T) error {
	switch q.put(item, always) {
	case putAccepted:
		return nil
	case putClosed:
		return ErrQueueClosed
	default:
		return ErrWouldBlock
	}
}

// Get removes and returns the head item, blocking while the queue is empty and open.
// It returns (zero, false) once the queue is closed and drained.
func (q *Queue[T]) Get() (T, bool) {
	item, st := q.get(never)
	return item, st == getItem
}

// GetTimeout is Get bounded by d. On timeout it returns (zero, false) and leaves
// the queue untouched; callers tell a timeout from the terminal state with Drained.
// A non-positive d makes a single non-blocking attempt.
func (q *Queue[T]) GetTimeout(d time.Duration) (T, bool) {
	deadline := time.Now().Add(d)
	if d > 0 {
		t := time.AfterFunc(d, func() { q.wake(q.notEmpty) })
		defer t.Stop()
	}
	item, st := q.get(func() bool { return !time.Now().Before(deadline) })
	return item, st == getItem
}

// GetContext is Get bounded by ctx. It returns ErrQueueDrained once the queue is
// closed and empty, or ctx.Err() when ctx ends first.
func (q *Queue[T]) GetContext(ctx context.Context) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	stop := context.AfterFunc(ctx, func() { q.wake(q.notEmpty) })
	defer stop()

	item, st := q.get(func() bool { return ctx.Err() != nil })
	switch st {
	case getItem:
		return item, nil
	case getDrained:
		return zero, ErrQueueDrained
	default:
		return zero, ctx.Err()
	}
}

// TryGet takes the head item only if one is buffered.
// It returns ErrWouldBlock on an empty open queue and ErrQueueDrained on a closed empty one.
func (q *Queue[T]) TryGet() (T, error) {
	item, st := q.get(always)
	switch st {
	case getItem:
		return item, nil
	case getDrained:
		return item, ErrQueueDrained
	default:
		return item, ErrWouldBlock
	}
}

// Close stops admissions and wakes every waiter. Redundant calls have no effect.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
}

// Size returns the number of buffered items.
func (q *Queue[T]) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}

// IsEmpty reports whether no item is buffered.
func (q *Queue[T]) IsEmpty() bool {
	return q.Size() == 0
}

// Cap returns the fixed capacity.
func (q *Queue[T]) Cap() int { return len(q.buf) }

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Drained reports whether the queue is closed and empty. Once true it stays true.
func (q *Queue[T]) Drained() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed && q.count == 0
}

func never() bool  { return false }
func always() bool { return true }

// put runs the admission decision inside the critical section.
// abandoned is consulted only while the queue is full and open.
func (q *Queue[T]) put(item T, abandoned func() bool) putStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == len(q.buf) && !q.closed {
		if abandoned() {
			return putAbandoned
		}
		q.notFull.Wait()
	}
	if q.closed {
		return putClosed
	}

	q.buf[(q.head+q.count)%len(q.buf)] = item
	q.count++
	if q.onDepth != nil {
		q.onDepth(1)
	}
	q.notEmpty.Signal()
	return putAccepted
}

// get takes the head item; abandoned is consulted only while the queue is empty and open.
func (q *Queue[T]) get(abandoned func() bool) (T, getStatus) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		if abandoned() {
			return zero, getAbandoned
		}
		q.notEmpty.Wait()
	}
	if q.count == 0 {
		return zero, getDrained
	}

	item := q.buf[q.head]
	q.buf[q.head] = zero // release the reference for GC
	q.head = (q.head + 1) % len(q.buf)
	q.count--
	if q.onDepth != nil {
		q.onDepth(-1)
	}
	q.notFull.Signal()
	return item, getItem
}

// wake broadcasts c under the queue lock so a waiter that has just checked its
// deadline cannot miss the wake-up.
func (q *Queue[T]) wake(c *sync.Cond) {
	q.mu.Lock()
	c.Broadcast()
	q.mu.Unlock()
}
