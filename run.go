package handoff

import (
	"context"

	"github.com/ygrebnov/errorc"
)

// Run feeds every source through one queue of the given capacity using the given
// number of drainers, and owns the whole lifecycle: register, Start, AwaitCompletion.
//
// Semantics:
// - Results are in drain order, not source order, when more than one drainer runs.
// - The returned error aggregates source failures; results delivered before a failure are kept.
// - With WithStopOnError, the first failure stops the remaining feeders early.
func Run[T any](ctx context.Context, capacity int, sources []Source[T], drainers int, opts ...Option) ([]T, error) {
	if drainers < 1 {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("drainers", "Run requires at least one drainer"))
	}

	o, err := New[T](capacity, opts...)
	if err != nil {
		return nil, err
	}
	for _, src := range sources {
		if _, err := o.AddFeeder(src); err != nil {
			return nil, err
		}
	}
	for range drainers {
		if _, err := o.AddDrainer(); err != nil {
			return nil, err
		}
	}

	o.Start(ctx)
	err = o.AwaitCompletion()
	return o.Results(), err
}

// RunSlices is Run over plain slices.
func RunSlices[T any](ctx context.Context, capacity int, batches [][]T, drainers int, opts ...Option) ([]T, error) {
	sources := make([]Source[T], 0, len(batches))
	for _, b := range batches {
		sources = append(sources, FromSlice(b))
	}
	return Run[T](ctx, capacity, sources, drainers, opts...)
}
