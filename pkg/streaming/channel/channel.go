package channel

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrChannelFull is returned by TrySend when a bounded queue has no free slot.
var ErrChannelFull = errors.New("channel buffer is full")

// ErrChannelClosed is returned when sending on a closed queue, or receiving
// from a closed queue that has no buffered elements left.
var ErrChannelClosed = errors.New("channel is closed")

// Queue is a FIFO channel with an optional capacity bound.
//
// A bounded queue blocks senders while it holds Cap() elements. An unbounded
// queue never blocks senders. Receivers block while the queue is empty and
// open. Queue is safe for concurrent use by multiple senders and receivers.
type Queue[T any] interface {
	// Send appends value, blocking while a bounded queue is full.
	Send(ctx context.Context, value T) error

	// TrySend appends value without blocking.
	TrySend(value T) error

	// Receive removes and returns the oldest value, blocking while empty.
	Receive(ctx context.Context) (T, error)

	// ReceiveTimeout is like Receive but gives up after timeout.
	// It returns false with a nil error when the wait timed out.
	ReceiveTimeout(timeout time.Duration) (T, bool, error)

	// TryReceive removes and returns the oldest value without blocking.
	TryReceive() (T, bool, error)

	// Close marks the queue closed. Buffered values remain receivable.
	Close() error

	// Clear discards all buffered values and returns how many were dropped.
	Clear() int

	// IsClosed returns true if the queue is closed.
	IsClosed() bool

	// Len returns the current number of buffered elements.
	Len() int

	// Cap returns the capacity bound, or 0 for an unbounded queue.
	Cap() int

	// Stats returns queue statistics.
	Stats() Stats
}

// Stats holds statistics about queue usage.
type Stats struct {
	// SendCount is the total number of values accepted.
	SendCount int64

	// ReceiveCount is the total number of values handed to receivers.
	ReceiveCount int64

	// DroppedCount is the total number of values discarded by Clear.
	DroppedCount int64

	// BlockedSends is the number of sends that had to wait for space.
	BlockedSends int64

	// TimedOutReceives is the number of ReceiveTimeout calls that expired.
	TimedOutReceives int64

	// HighWaterMark is the largest Len observed.
	HighWaterMark int

	// BufferUtilization is Len/Cap for bounded queues (0.0 to 1.0).
	BufferUtilization float64

	// LastSendTime is the timestamp of the last accepted value.
	LastSendTime time.Time

	// LastReceiveTime is the timestamp of the last received value.
	LastReceiveTime time.Time
}

// Config holds configuration for Queue.
type Config struct {
	// Capacity bounds the number of buffered elements. 0 means unbounded.
	Capacity int

	// OnSend is called with each value after it has been accepted.
	// It runs with the queue lock held and must not call back into the queue.
	OnSend func(value interface{})

	// OnBlock is called each time a sender has to wait for space.
	OnBlock func()
}

// DefaultConfig returns an unbounded configuration.
func DefaultConfig() Config {
	return Config{Capacity: 0}
}

type queue[T any] struct {
	config Config
	mu     sync.Mutex
	items  []T
	closed bool

	notEmpty *sync.Cond
	notFull  *sync.Cond

	stats Stats
}

// New creates a Queue bounded to capacity elements. capacity <= 0 creates an
// unbounded queue.
func New[T any](capacity int) Queue[T] {
	config := DefaultConfig()
	config.Capacity = capacity
	return NewWithConfig[T](config)
}

// NewUnbounded creates a Queue that never blocks senders.
func NewUnbounded[T any]() Queue[T] {
	return NewWithConfig[T](DefaultConfig())
}

// NewWithConfig creates a Queue with the specified configuration.
func NewWithConfig[T any](config Config) Queue[T] {
	if config.Capacity < 0 {
		config.Capacity = 0
	}

	q := &queue[T]{config: config}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q
}

// Send implements Queue.Send.
func (q *queue[T]) Send(ctx context.Context, value T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrChannelClosed
	}

	if q.fullLocked() {
		stop := context.AfterFunc(ctx, q.wakeAll)
		defer stop()

		q.stats.BlockedSends++
		for q.fullLocked() && !q.closed {
			if err := ctx.Err(); err != nil {
				return err
			}
			if q.config.OnBlock != nil {
				q.config.OnBlock()
			}
			q.notFull.Wait()
		}
		if q.closed {
			return ErrChannelClosed
		}
	}

	q.pushLocked(value)
	return nil
}

// TrySend implements Queue.TrySend.
func (q *queue[T]) TrySend(value T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrChannelClosed
	}
	if q.fullLocked() {
		return ErrChannelFull
	}

	q.pushLocked(value)
	return nil
}

// Receive implements Queue.Receive.
func (q *queue[T]) Receive(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 && !q.closed {
		stop := context.AfterFunc(ctx, q.wakeAll)
		defer stop()

		for len(q.items) == 0 && !q.closed {
			if err := ctx.Err(); err != nil {
				return zero, err
			}
			q.notEmpty.Wait()
		}
	}

	if len(q.items) == 0 {
		return zero, ErrChannelClosed
	}
	return q.popLocked(), nil
}

// ReceiveTimeout implements Queue.ReceiveTimeout.
func (q *queue[T]) ReceiveTimeout(timeout time.Duration) (T, bool, error) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 && !q.closed {
		expired := false
		timer := time.AfterFunc(timeout, func() {
			q.mu.Lock()
			expired = true
			q.mu.Unlock()
			q.notEmpty.Broadcast()
		})
		defer timer.Stop()

		for len(q.items) == 0 && !q.closed {
			if expired {
				q.stats.TimedOutReceives++
				return zero, false, nil
			}
			q.notEmpty.Wait()
		}
	}

	if len(q.items) == 0 {
		return zero, false, ErrChannelClosed
	}
	return q.popLocked(), true, nil
}

// TryReceive implements Queue.TryReceive.
func (q *queue[T]) TryReceive() (T, bool, error) {
	var zero T

	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		if q.closed {
			return zero, false, ErrChannelClosed
		}
		return zero, false, nil
	}
	return q.popLocked(), true, nil
}

// Close implements Queue.Close.
func (q *queue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	return nil
}

// Clear implements Queue.Clear.
func (q *queue[T]) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := len(q.items)
	clear(q.items)
	q.items = q.items[:0]
	q.stats.DroppedCount += int64(dropped)
	q.notFull.Broadcast()
	return dropped
}

// IsClosed implements Queue.IsClosed.
func (q *queue[T]) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len implements Queue.Len.
func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap implements Queue.Cap.
func (q *queue[T]) Cap() int {
	return q.config.Capacity
}

// Stats implements Queue.Stats.
func (q *queue[T]) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()

	stats := q.stats
	if q.config.Capacity > 0 {
		stats.BufferUtilization = float64(len(q.items)) / float64(q.config.Capacity)
	}
	return stats
}

func (q *queue[T]) fullLocked() bool {
	return q.config.Capacity > 0 && len(q.items) >= q.config.Capacity
}

// pushLocked appends a value (must hold lock).
func (q *queue[T]) pushLocked(value T) {
	q.items = append(q.items, value)
	q.stats.SendCount++
	q.stats.LastSendTime = time.Now()
	if len(q.items) > q.stats.HighWaterMark {
		q.stats.HighWaterMark = len(q.items)
	}
	if q.config.OnSend != nil {
		q.config.OnSend(value)
	}
	q.notEmpty.Signal()
}

// popLocked removes the oldest value (must hold lock).
func (q *queue[T]) popLocked() T {
	value := q.items[0]
	var zero T
	q.items[0] = zero // Clear reference
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}

	q.stats.ReceiveCount++
	q.stats.LastReceiveTime = time.Now()
	q.notFull.Signal()
	return value
}

// wakeAll wakes every waiter so it can re-check its context.
func (q *queue[T]) wakeAll() {
	q.mu.Lock()
	q.notEmpty.Broadcast()
	q.notFull.Broadcast()
	q.mu.Unlock()
}
