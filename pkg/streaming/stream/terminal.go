package stream

import (
	"context"
	"iter"
)

// ToSlice drains it into a slice and closes it. It stops at the first error.
func ToSlice[T any](ctx context.Context, it Iterator[T]) ([]T, error) {
	defer func() { _ = it.Close() }()

	var result []T
	for {
		value, ok, err := it.Next(ctx)
		if err != nil {
			return result, err
		}
		if !ok {
			return result, nil
		}
		result = append(result, value)
	}
}

// ForEach calls action for each element of it and closes it.
// Iteration stops at the first error returned by it or by action.
func ForEach[T any](ctx context.Context, it Iterator[T], action func(T) error) error {
	defer func() { _ = it.Close() }()

	for {
		value, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := action(value); err != nil {
			return err
		}
	}
}

// Count consumes it and returns the number of elements.
func Count[T any](ctx context.Context, it Iterator[T]) (int, error) {
	var count int
	err := ForEach(ctx, it, func(T) error {
		count++
		return nil
	})
	return count, err
}

// All adapts it to a range-over-func sequence of (element, error) pairs.
// Errors are yielded in place and iteration continues; breaking out of the
// loop closes it.
func All[T any](ctx context.Context, it Iterator[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer func() { _ = it.Close() }()

		for {
			value, ok, err := it.Next(ctx)
			if err != nil {
				if !yield(value, err) {
					return
				}
				continue
			}
			if !ok {
				return
			}
			if !yield(value, nil) {
				return
			}
		}
	}
}
