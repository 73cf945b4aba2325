package stream

import "context"

// Iterator is a lazy, single-pass, pull-based sequence of elements.
//
// Next returns the next element and true, or the zero value and false once the
// sequence is exhausted. A non-nil error reports a failure for one step; unless
// an implementation documents otherwise the caller may call Next again to
// continue with the following element. Iterators are not safe for concurrent use.
type Iterator[T any] interface {
	// Next returns the next element, whether one was produced, and any error.
	Next(ctx context.Context) (T, bool, error)

	// Close releases resources held by the iterator and its upstream.
	Close() error
}

// Func adapts a plain function to the Iterator interface.
type Func[T any] func(ctx context.Context) (T, bool, error)

// Next calls f.
func (f Func[T]) Next(ctx context.Context) (T, bool, error) {
	return f(ctx)
}

// Close implements Iterator. Func holds no resources.
func (f Func[T]) Close() error {
	return nil
}

// upstream is embedded by transforms that own a single source.
type upstream[T any] struct {
	src    Iterator[T]
	closed bool
}

func (u *upstream[T]) Close() error {
	if u.closed {
		return nil
	}
	u.closed = true
	return u.src.Close()
}
