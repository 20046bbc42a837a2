package handoff

import "sync"

// Sink is the shared destination drainers append to.
// Implementations must serialize Append and return a stable copy from Snapshot.
type Sink[T any] interface {
	Append(item T)
	Snapshot() []T
	Len() int
}

// SliceSink is an append-only, mutex-guarded slice.
type SliceSink[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewSliceSink returns an empty SliceSink with room for sizeHint items.
func NewSliceSink[T any](sizeHint int) *SliceSink[T] {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &SliceSink[T]{items: make([]T, 0, sizeHint)}
}

func (s *SliceSink[T]) Append(item T) {
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
}

// Snapshot returns a copy; later appends do not affect it.
func (s *SliceSink[T]) Snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

func (s *SliceSink[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
