package flow

import (
	"context"
	"iter"

	"github.com/vnykmshr/forkflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

// Sequential is a lazy iterator with chainable stages. Stages may be added
// until the first call to Next; after that they are recorded as
// errors.ErrPipelineFrozen and reported by Err.
type Sequential[T any] struct {
	src      stream.Iterator[T]
	pipeline *pipeline.Pipeline[T]
	it       stream.Iterator[T]
	err      error
}

// From wraps an existing iterator.
func From[T any](src stream.Iterator[T]) *Sequential[T] {
	return &Sequential[T]{src: src, pipeline: pipeline.New[T]()}
}

// FromSlice iterates over a slice.
func FromSlice[T any](items []T) *Sequential[T] {
	return From(stream.FromSlice(items))
}

// FromSeq iterates over a range-over-func sequence.
func FromSeq[T any](seq iter.Seq[T]) *Sequential[T] {
	return From(stream.FromSeq(seq))
}

// Map transforms every element.
func (s *Sequential[T]) Map(f func(T) T) *Sequential[T] {
	s.pipeline.Map(f)
	return s
}

// TryMap transforms every element with a function that may fail. A failure
// is returned by Next for that element only.
func (s *Sequential[T]) TryMap(f func(T) (T, error)) *Sequential[T] {
	s.pipeline.TryMap(f)
	return s
}

// Filter keeps the elements for which pred returns true.
func (s *Sequential[T]) Filter(pred func(T) bool) *Sequential[T] {
	s.pipeline.Filter(pred)
	return s
}

// Flatten replaces every element by the elements it contains.
func (s *Sequential[T]) Flatten() *Sequential[T] {
	s.pipeline.Flatten()
	return s
}

// Take keeps at most n elements.
func (s *Sequential[T]) Take(n int) *Sequential[T] {
	s.pipeline.Take(n)
	return s
}

// Skip drops the first n elements.
func (s *Sequential[T]) Skip(n int) *Sequential[T] {
	s.pipeline.Skip(n)
	return s
}

// Step keeps the first element and every k-th one after it.
func (s *Sequential[T]) Step(k int) *Sequential[T] {
	s.pipeline.Step(k)
	return s
}

// Err returns the first error recorded while adding stages.
func (s *Sequential[T]) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.pipeline.Err()
}

// Next implements stream.Iterator.
func (s *Sequential[T]) Next(ctx context.Context) (T, bool, error) {
	if s.it == nil {
		if err := s.build(); err != nil {
			var zero T
			return zero, false, err
		}
	}
	return s.it.Next(ctx)
}

func (s *Sequential[T]) build() error {
	if s.err != nil {
		return s.err
	}
	it, err := s.pipeline.Apply(s.src)
	if err != nil {
		s.err = err
		return err
	}
	s.it = it
	return nil
}

// Close releases the underlying iterator.
func (s *Sequential[T]) Close() error {
	if s.it != nil {
		return s.it.Close()
	}
	return s.src.Close()
}

// ToSlice drains the iterator. It stops at the first error.
func (s *Sequential[T]) ToSlice(ctx context.Context) ([]T, error) {
	return stream.ToSlice[T](ctx, s)
}

// All returns a range-over-func view that yields errors alongside values.
func (s *Sequential[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return stream.All[T](ctx, s)
}

// Fork starts a parallel section that consumes this iterator. n is the
// worker count and defaults to DefaultWorkers.
func (s *Sequential[T]) Fork(n ...int) *Parallel[T] {
	workers := DefaultWorkers
	if len(n) > 0 {
		workers = n[0]
	}
	return newParallel[T](s, workers)
}
