package handoff

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue[T any](t *testing.T, capacity int) *Queue[T] {
	t.Helper()
	q, err := NewQueue[T](capacity)
	require.NoError(t, err)
	return q
}

// helper: wait for a value on ch or fail after d.
func recvWithin[T any](t *testing.T, ch <-chan T, d time.Duration, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(d):
		t.Fatalf("timed out after %v waiting for %s", d, what)
	}
	var zero T
	return zero
}

// helper: assert nothing arrives on ch for d.
func noRecvWithin[T any](t *testing.T, ch <-chan T, d time.Duration, what string) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("%s: unexpected value %v", what, v)
	case <-time.After(d):
	}
}

func TestNewQueue_RejectsNonPositiveCapacity(t *testing.T) {
	for _, c := range []int{0, -1} {
		q, err := NewQueue[int](c)
		require.ErrorIs(t, err, ErrInvalidConfig)
		require.Nil(t, q)
	}
}

func TestQueue_PutGetFIFO(t *testing.T) {
	q := newTestQueue[int](t, 10)

	in := []int{1, 2, 3, 4, 5}
	for _, v := range in {
		require.True(t, q.Put(v))
	}
	require.Equal(t, 5, q.Size())
	require.False(t, q.IsEmpty())
	require.Equal(t, 10, q.Cap())

	var out []int
	for range in {
		v, ok := q.Get()
		require.True(t, ok)
		out = append(out, v)
	}
	if diff := cmp.Diff(in, out); diff != "" {
		t.Fatalf("drain order mismatch (-want +got):\n%s", diff)
	}
	require.True(t, q.IsEmpty())
}

func TestQueue_WrapsAroundRing(t *testing.T) {
	q := newTestQueue[int](t, 3)

	var out []int
	for i := 0; i < 10; i++ {
		require.True(t, q.Put(i))
		if q.Size() == 3 {
			v, ok := q.Get()
			require.True(t, ok)
			out = append(out, v)
		}
	}
	for !q.IsEmpty() {
		v, _ := q.Get()
		out = append(out, v)
	}
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, out)
}

// capacity=2: a, b accepted; c blocks until a Get returns a; final order a, b, c.
func TestQueue_PutBlocksWhenFullUntilGet(t *testing.T) {
	q := newTestQueue[string](t, 2)
	require.True(t, q.Put("a"))
	require.True(t, q.Put("b"))

	putDone := make(chan bool, 1)
	go func() { putDone <- q.Put("c") }()

	noRecvWithin(t, putDone, 100*time.Millisecond, "Put on full queue")
	require.Equal(t, 2, q.Size())

	v, ok := q.Get()
	require.True(t, ok)
	require.Equal(t, "a", v)

	require.True(t, recvWithin(t, putDone, time.Second, "blocked Put to resume"))

	var rest []string
	for !q.IsEmpty() {
		v, _ := q.Get()
		rest = append(rest, v)
	}
	require.Equal(t, []string{"b", "c"}, rest)
}

func TestQueue_GetBlocksUntilPut(t *testing.T) {
	q := newTestQueue[int](t, 1)

	got := make(chan int, 1)
	go func() {
		v, ok := q.Get()
		if ok {
			got <- v
		}
	}()

	noRecvWithin(t, got, 50*time.Millisecond, "Get on empty queue")
	require.True(t, q.Put(7))
	require.Equal(t, 7, recvWithin(t, got, time.Second, "blocked Get to resume"))
}

// GetTimeout on an empty open queue misses after at least the timeout and leaves the queue open.
func TestQueue_GetTimeoutOnEmptyOpenQueue(t *testing.T) {
	q := newTestQueue[string](t, 5)

	start := time.Now()
	v, ok := q.GetTimeout(100 * time.Millisecond)
	elapsed := time.Since(start)

	require.False(t, ok)
	require.Empty(t, v)
	require.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	require.False(t, q.Closed())
	require.False(t, q.Drained())
}

func TestQueue_GetTimeoutReturnsItemArrivingBeforeDeadline(t *testing.T) {
	q := newTestQueue[int](t, 1)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Put(42)
	}()

	v, ok := q.GetTimeout(2 * time.Second)
	require.True(t, ok)
	require.Equal(t, 42, v)
}

func TestQueue_GetTimeoutNonPositiveIsNonBlocking(t *testing.T) {
	q := newTestQueue[int](t, 1)

	start := time.Now()
	_, ok := q.GetTimeout(0)
	require.False(t, ok)
	require.Less(t, time.Since(start), 50*time.Millisecond)

	q.Put(1)
	v, ok := q.GetTimeout(-time.Second)
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestQueue_CloseKeepsBufferedItemsThenDrains(t *testing.T) {
	q := newTestQueue[string](t, 5)
	require.True(t, q.Put("item"))
	q.Close()

	require.True(t, q.Closed())
	require.False(t, q.Drained())

	v, ok := q.Get()
	require.True(t, ok)
	require.Equal(t, "item", v)

	require.True(t, q.Drained())
	for range 3 {
		_, ok = q.Get()
		require.False(t, ok, "closed and drained queue must keep returning false")
	}
}

func TestQueue_CloseIsIdempotentAndRejectsPuts(t *testing.T) {
	for _, closes := range []int{1, 5} {
		q := newTestQueue[int](t, 1)
		for range closes {
			q.Close()
		}

		start := time.Now()
		for range 10 {
			require.False(t, q.Put(1))
		}
		require.Less(t, time.Since(start), 50*time.Millisecond, "Put after Close must not block")
		require.Zero(t, q.Size())
		require.True(t, q.Drained())
	}
}

func TestQueue_CloseWakesBlockedPutters(t *testing.T) {
	q := newTestQueue[int](t, 1)
	require.True(t, q.Put(0))

	const n = 4
	results := make(chan bool, n)
	for i := 1; i <= n; i++ {
		go func(v int) { results <- q.Put(v) }(i)
	}
	noRecvWithin(t, results, 50*time.Millisecond, "Put on full queue")

	q.Close()
	for range n {
		require.False(t, recvWithin(t, results, time.Second, "Put to observe Close"))
	}
	require.Equal(t, 1, q.Size(), "no item is accepted once closed")
}

func TestQueue_CloseWakesBlockedGetters(t *testing.T) {
	q := newTestQueue[int](t, 1)

	const n = 3
	results := make(chan bool, n)
	for range n {
		go func() {
			_, ok := q.Get()
			results <- ok
		}()
	}
	noRecvWithin(t, results, 50*time.Millisecond, "Get on empty queue")

	q.Close()
	for range n {
		require.False(t, recvWithin(t, results, time.Second, "Get to observe Close"))
	}
}

func TestQueue_PutContext(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		q := newTestQueue[int](t, 1)
		require.NoError(t, q.PutContext(context.Background(), 1))
	})

	t.Run("already canceled", func(t *testing.T) {
		q := newTestQueue[int](t, 1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.ErrorIs(t, q.PutContext(ctx, 1), context.Canceled)
		require.Zero(t, q.Size())
	})

	t.Run("closed", func(t *testing.T) {
		q := newTestQueue[int](t, 1)
		q.Close()
		require.ErrorIs(t, q.PutContext(context.Background(), 1), ErrQueueClosed)
	})

	t.Run("canceled while blocked", func(t *testing.T) {
		q := newTestQueue[int](t, 1)
		require.True(t, q.Put(0))

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() { errCh <- q.PutContext(ctx, 1) }()

		noRecvWithin(t, errCh, 50*time.Millisecond, "PutContext on full queue")
		cancel()
		require.ErrorIs(t, recvWithin(t, errCh, time.Second, "PutContext to observe cancel"), context.Canceled)
		require.Equal(t, 1, q.Size())
	})

	t.Run("deadline while blocked", func(t *testing.T) {
		q := newTestQueue[int](t, 1)
		require.True(t, q.Put(0))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
		defer cancel()
		require.ErrorIs(t, q.PutContext(ctx, 1), context.DeadlineExceeded)
	})
}

func TestQueue_GetContext(t *testing.T) {
	q := newTestQueue[int](t, 2)
	require.True(t, q.Put(5))

	v, err := q.GetContext(context.Background())
	require.NoError(t, err)
	require.Equal(t, 5, v)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = q.GetContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, q.Closed())

	q.Close()
	_, err = q.GetContext(context.Background())
	require.ErrorIs(t, err, ErrQueueDrained)
}

func TestQueue_TryPutTryGet(t *testing.T) {
	q := newTestQueue[int](t, 1)

	_, err := q.TryGet()
	require.ErrorIs(t, err, ErrWouldBlock)
	require.True(t, IsWouldBlock(err))

	require.NoError(t, q.TryPut(1))
	err = q.TryPut(2)
	require.True(t, IsWouldBlock(err))

	v, err := q.TryGet()
	require.NoError(t, err)
	require.Equal(t, 1, v)

	q.Close()
	require.ErrorIs(t, q.TryPut(3), ErrQueueClosed)
	_, err = q.TryGet()
	require.ErrorIs(t, err, ErrQueueDrained)
	require.False(t, IsWouldBlock(err))
}

// Length never exceeds capacity while many goroutines put and get with random pauses.
func TestQueue_LengthNeverExceedsCapacity(t *testing.T) {
	for _, capacity := range []int{1, 2, 3, 7, 16} {
		q := newTestQueue[int](t, capacity)

		const producers, consumers, perProducer = 4, 3, 200
		var (
			wg       sync.WaitGroup
			maxSeen  atomic.Int64
			consumed atomic.Int64
			stop     = make(chan struct{})
		)
		observe := func() {
			n := int64(q.Size())
			for {
				m := maxSeen.Load()
				if n <= m || maxSeen.CompareAndSwap(m, n) {
					return
				}
			}
		}

		var pwg sync.WaitGroup
		pwg.Add(producers)
		for p := 0; p < producers; p++ {
			go func(seed int64) {
				defer pwg.Done()
				r := rand.New(rand.NewSource(seed))
				for i := 0; i < perProducer; i++ {
					if !assert.True(t, q.Put(i), "open queue refused an item") {
						return
					}
					observe()
					if r.Intn(4) == 0 {
						time.Sleep(time.Duration(r.Intn(50)) * time.Microsecond)
					}
				}
			}(int64(p))
		}

		wg.Add(consumers)
		for c := 0; c < consumers; c++ {
			go func(seed int64) {
				defer wg.Done()
				r := rand.New(rand.NewSource(seed))
				for {
					if _, ok := q.GetTimeout(5 * time.Millisecond); ok {
						consumed.Add(1)
						observe()
						if r.Intn(4) == 0 {
							time.Sleep(time.Duration(r.Intn(50)) * time.Microsecond)
						}
						continue
					}
					select {
					case <-stop:
						if q.Drained() {
							return
						}
					default:
					}
				}
			}(int64(100 + c))
		}

		pwg.Wait()
		q.Close()
		close(stop)
		wg.Wait()

		require.LessOrEqual(t, maxSeen.Load(), int64(capacity), "capacity %d", capacity)
		require.EqualValues(t, producers*perProducer, consumed.Load(), "capacity %d", capacity)
	}
}

// The depth hook runs inside the critical section, so its running total never
// leaves [0, capacity] however puts and gets interleave.
func TestQueue_DepthHookStaysWithinBounds(t *testing.T) {
	const capacity = 3
	q := newTestQueue[int](t, capacity)

	var depth, minDepth, maxDepth int64
	q.onDepth = func(delta int64) {
		depth += delta
		minDepth = min(minDepth, depth)
		maxDepth = max(maxDepth, depth)
	}

	const producers, perProducer = 4, 250
	var wg sync.WaitGroup
	wg.Add(producers)
	for range producers {
		go func() {
			defer wg.Done()
			for i := range perProducer {
				if !assert.True(t, q.Put(i)) {
					return
				}
			}
		}()
	}

	got := make(chan int, 1)
	go func() {
		n := 0
		for {
			if _, ok := q.Get(); !ok {
				got <- n
				return
			}
			n++
		}
	}()

	wg.Wait()
	q.Close()
	require.Equal(t, producers*perProducer, recvWithin(t, got, 5*time.Second, "consumer to drain the queue"))

	q.mu.Lock()
	defer q.mu.Unlock()
	require.Zero(t, depth)
	require.GreaterOrEqual(t, minDepth, int64(0))
	require.LessOrEqual(t, maxDepth, int64(capacity))
}
