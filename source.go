package handoff

import "iter"

// Source is a finite, single-pass sequence of items consumed by one Feeder.
// A non-nil error reports that the next item could not be read; the feeder stops
// at the first one and the paired item value is ignored.
type Source[T any] iter.Seq2[T, error]

// FromSlice adapts a slice. The slice is read front to back and not modified.
func FromSlice[T any](items []T) Source[T] {
	return func(yield func(T, error) bool) {
		for _, it := range items {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// FromSeq adapts an infallible iterator.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	return func(yield func(T, error) bool) {
		for it := range seq {
			if !yield(it, nil) {
				return
			}
		}
	}
}

// FromFunc adapts a pull-style reader. next returns ok=false once exhausted;
// a non-nil error is forwarded and ends the sequence.
func FromFunc[T any](next func() (item T, ok bool, err error)) Source[T] {
	return func(yield func(T, error) bool) {
		for {
			it, ok, err := next()
			if err != nil {
				yield(it, err)
				return
			}
			if !ok {
				return
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}

// FromChannel adapts a channel; the sequence ends when ch is closed.
func FromChannel[T any](ch <-chan T) Source[T] {
	return func(yield func(T, error) bool) {
		for it := range ch {
			if !yield(it, nil) {
				return
			}
		}
	}
}
