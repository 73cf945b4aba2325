package stream

import (
	"context"
	"iter"
	"reflect"

	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/common/validation"
)

// Map returns an Iterator that applies mapper to each element of src.
func Map[T any](src Iterator[T], mapper func(T) T) Iterator[T] {
	return TryMap(src, func(v T) (T, error) { return mapper(v), nil })
}

// TryMap returns an Iterator that applies a fallible mapper to each element.
// A mapper error is returned for that element only; the next call continues
// with the following element.
func TryMap[T any](src Iterator[T], mapper func(T) (T, error)) Iterator[T] {
	return &mapOperation[T]{upstream: upstream[T]{src: src}, mapper: mapper}
}

// Filter returns an Iterator over the elements of src that match predicate.
func Filter[T any](src Iterator[T], predicate func(T) bool) Iterator[T] {
	return &filterOperation[T]{upstream: upstream[T]{src: src}, predicate: predicate}
}

// Peek returns an Iterator that calls action on each element as it is consumed.
func Peek[T any](src Iterator[T], action func(T)) Iterator[T] {
	return Map(src, func(v T) T {
		action(v)
		return v
	})
}

// Flatten treats every element of src as a sequence and yields its elements
// in order. Accepted element shapes are Iterator[T], iter.Seq[T], and slices or
// arrays whose element type is assignable to T. Strings are not expanded.
// Any other element produces a *NotIterableError for that element. An inner
// iterator that returns an error is closed, and flattening resumes with the
// next element.
func Flatten[T any](src Iterator[T]) Iterator[T] {
	return &flattenOperation[T]{upstream: upstream[T]{src: src}}
}

// Take returns an Iterator over at most n elements of src. Once n elements
// have been produced src is never advanced again. Negative n is treated as 0.
func Take[T any](src Iterator[T], n int) Iterator[T] {
	return &limitOperation[T]{upstream: upstream[T]{src: src}, maxSize: max(n, 0)}
}

// Skip returns an Iterator that drops the first n elements of src. Nothing is
// consumed from src until the first call to Next. Negative n is treated as 0.
func Skip[T any](src Iterator[T], n int) Iterator[T] {
	return &skipOperation[T]{upstream: upstream[T]{src: src}, count: max(n, 0)}
}

// Step returns an Iterator over every k-th element of src, starting with the
// first. Step with k == 1 returns src itself. k < 1 is a configuration error.
func Step[T any](src Iterator[T], k int) (Iterator[T], error) {
	if err := validation.ValidatePositive("stream", "step", k); err != nil {
		return nil, err
	}
	if k == 1 {
		return src, nil
	}
	return &stepOperation[T]{upstream: upstream[T]{src: src}, step: k}, nil
}

// mapOperation transforms elements using a mapper function.
type mapOperation[T any] struct {
	upstream[T]
	mapper func(T) (T, error)
}

func (m *mapOperation[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	value, ok, err := m.src.Next(ctx)
	if err != nil || !ok {
		return zero, false, err
	}

	mapped, err := m.mapper(value)
	if err != nil {
		return zero, false, err
	}
	return mapped, true, nil
}

// filterOperation filters elements based on a predicate.
type filterOperation[T any] struct {
	upstream[T]
	predicate func(T) bool
}

func (f *filterOperation[T]) Next(ctx context.Context) (T, bool, error) {
	for {
		value, ok, err := f.src.Next(ctx)
		if err != nil || !ok {
			var zero T
			return zero, false, err
		}
		if f.predicate(value) {
			return value, true, nil
		}
	}
}

// flattenOperation expands each upstream element into its own elements.
type flattenOperation[T any] struct {
	upstream[T]
	inner Iterator[T]
}

func (f *flattenOperation[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	for {
		if f.inner != nil {
			value, ok, err := f.inner.Next(ctx)
			if ok && err == nil {
				return value, true, nil
			}
			// a failed inner sequence is abandoned; the error belongs to its element
			_ = f.inner.Close()
			f.inner = nil
			if err != nil {
				return zero, false, err
			}
		}

		element, ok, err := f.src.Next(ctx)
		if err != nil || !ok {
			return zero, false, err
		}

		inner, err := expand(element)
		if err != nil {
			return zero, false, err
		}
		f.inner = inner
	}
}

func (f *flattenOperation[T]) Close() error {
	if f.inner != nil {
		_ = f.inner.Close()
		f.inner = nil
	}
	return f.upstream.Close()
}

// expand returns an Iterator over the contents of element.
func expand[T any](element T) (Iterator[T], error) {
	switch v := any(element).(type) {
	case Iterator[T]:
		return v, nil
	case iter.Seq[T]:
		return FromSeq(v), nil
	case func(func(T) bool):
		return FromSeq(iter.Seq[T](v)), nil
	case []T:
		return FromSlice(v), nil
	case string:
		return nil, fferrors.NewNotIterableError(element)
	}

	rv := reflect.ValueOf(any(element))
	if !rv.IsValid() {
		return nil, fferrors.NewNotIterableError(element)
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if !rv.Type().Elem().AssignableTo(reflect.TypeFor[T]()) {
			return nil, fferrors.NewNotIterableError(element)
		}
		return &reflectSource[T]{value: rv}, nil
	default:
		return nil, fferrors.NewNotIterableError(element)
	}
}

// reflectSource iterates a slice or array of any element type assignable to T.
type reflectSource[T any] struct {
	value reflect.Value
	index int
}

func (r *reflectSource[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	if r.index >= r.value.Len() {
		return zero, false, nil
	}
	element := r.value.Index(r.index)
	r.index++

	var out T
	reflect.ValueOf(&out).Elem().Set(element)
	return out, true, nil
}

func (r *reflectSource[T]) Close() error {
	return nil
}

// limitOperation limits the number of elements.
type limitOperation[T any] struct {
	upstream[T]
	maxSize int
	count   int
}

func (l *limitOperation[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if l.count >= l.maxSize {
		return zero, false, nil
	}

	value, ok, err := l.src.Next(ctx)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		l.maxSize = l.count
		return zero, false, nil
	}
	l.count++
	return value, true, nil
}

// skipOperation skips the first n elements.
type skipOperation[T any] struct {
	upstream[T]
	count   int
	skipped int
}

func (s *skipOperation[T]) Next(ctx context.Context) (T, bool, error) {
	for s.skipped < s.count {
		_, ok, err := s.src.Next(ctx)
		if err != nil {
			var zero T
			return zero, false, err
		}
		if !ok {
			s.skipped = s.count
			var zero T
			return zero, false, nil
		}
		s.skipped++
	}
	return s.src.Next(ctx)
}

// stepOperation yields the first element and then every step-th one after it.
type stepOperation[T any] struct {
	upstream[T]
	step    int
	pending int
	done    bool
}

func (s *stepOperation[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	for !s.done && s.pending > 0 {
		_, ok, err := s.src.Next(ctx)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			s.done = true
			break
		}
		s.pending--
	}
	if s.done {
		return zero, false, nil
	}

	value, ok, err := s.src.Next(ctx)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		s.done = true
		return zero, false, nil
	}
	s.pending = s.step - 1
	return value, true, nil
}
