package stream

import (
	"context"
	"iter"
)

// FromSlice creates an Iterator over a slice.
func FromSlice[T any](slice []T) Iterator[T] {
	return &sliceSource[T]{slice: slice}
}

// FromChannel creates an Iterator that receives from ch until it is closed.
func FromChannel[T any](ch <-chan T) Iterator[T] {
	return &channelSource[T]{ch: ch}
}

// FromSeq creates an Iterator from a range-over-func sequence.
// Close must be called if the iterator is abandoned before it is exhausted.
func FromSeq[T any](seq iter.Seq[T]) Iterator[T] {
	next, stop := iter.Pull(seq)
	return &seqSource[T]{next: next, stop: stop}
}

// Generate creates an infinite Iterator from a generator function.
func Generate[T any](generator func() T) Iterator[T] {
	return Func[T](func(ctx context.Context) (T, bool, error) {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, false, err
		}
		return generator(), true, nil
	})
}

// Range creates an Iterator over the integers [start, stop).
func Range(start, stop int) Iterator[int] {
	next := start
	return Func[int](func(_ context.Context) (int, bool, error) {
		if next >= stop {
			return 0, false, nil
		}
		next++
		return next - 1, true, nil
	})
}

// Empty creates an empty Iterator.
func Empty[T any]() Iterator[T] {
	return Func[T](func(_ context.Context) (T, bool, error) {
		var zero T
		return zero, false, nil
	})
}

// sliceSource implements Iterator for slices.
type sliceSource[T any] struct {
	slice []T
	index int
}

func (s *sliceSource[T]) Next(_ context.Context) (T, bool, error) {
	if s.index >= len(s.slice) {
		var zero T
		return zero, false, nil
	}
	s.index++
	return s.slice[s.index-1], true, nil
}

func (s *sliceSource[T]) Close() error {
	s.index = len(s.slice)
	return nil
}

// channelSource implements Iterator for channels.
type channelSource[T any] struct {
	ch <-chan T
}

func (s *channelSource[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	select {
	case value, ok := <-s.ch:
		if !ok {
			return zero, false, nil
		}
		return value, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}

func (s *channelSource[T]) Close() error {
	return nil
}

// seqSource implements Iterator for iter.Seq using iter.Pull.
type seqSource[T any] struct {
	next func() (T, bool)
	stop func()
}

func (s *seqSource[T]) Next(_ context.Context) (T, bool, error) {
	v, ok := s.next()
	return v, ok, nil
}

func (s *seqSource[T]) Close() error {
	s.stop()
	return nil
}
