package writer

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/forkflow/pkg/common/validation"
	"github.com/vnykmshr/forkflow/pkg/metrics"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

// ErrWriterClosed is returned when attempting to write to a closed writer.
var ErrWriterClosed = errors.New("writer is closed")

// Encoder renders one element as a single line, without the trailing newline.
type Encoder[T any] func(T) ([]byte, error)

// JSONLines encodes each element as one line of JSON.
func JSONLines[T any]() Encoder[T] {
	return func(v T) ([]byte, error) {
		return json.Marshal(v)
	}
}

// Text encodes each element with fmt.Sprint.
func Text[T any]() Encoder[T] {
	return func(v T) ([]byte, error) {
		return []byte(fmt.Sprint(v)), nil
	}
}

// Stats holds counters describing what a Writer has done.
type Stats struct {
	// Lines is the number of elements encoded into the buffer.
	Lines int64

	// BytesWritten is the number of bytes handed to the underlying writer.
	BytesWritten int64

	// FlushCount is the number of flushes, explicit or automatic.
	FlushCount int64

	// ErrorCount counts encode, write and skipped element errors.
	ErrorCount int64

	// LastFlush is when the buffer was last flushed.
	LastFlush time.Time
}

// Config holds configuration options for Writer.
type Config struct {
	// BufferSize is the size of the internal buffer in bytes.
	// Default: 64KB
	BufferSize int

	// FlushEvery flushes after this many lines. Zero flushes only when the
	// buffer fills, on Flush and on Close.
	FlushEvery int

	// ContinueOnError makes Drain skip elements whose Next or encoding failed
	// instead of stopping. Write errors always stop Drain.
	ContinueOnError bool

	// Name labels metrics. Default: "default"
	Name string

	// Metrics records flushes and bytes. Nil disables metrics.
	Metrics *metrics.Registry

	// OnError is called for every error the writer observes.
	OnError func(error)

	// OnFlush is called after each successful flush.
	OnFlush func(bytesWritten int, duration time.Duration)
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{
		BufferSize: 64 * 1024,
		Name:       "default",
	}
}

// Writer encodes elements as newline terminated lines into a buffered
// io.Writer. It is safe for concurrent use.
type Writer[T any] struct {
	mu      sync.Mutex
	out     *countingWriter
	buf     *bufio.Writer
	encode  Encoder[T]
	config  Config
	pending int
	closed  bool
	stats   Stats
}

// New creates a Writer with default configuration.
func New[T any](w io.Writer, encode Encoder[T]) (*Writer[T], error) {
	return NewWithConfig(w, encode, DefaultConfig())
}

// NewWithConfig creates a Writer with the specified configuration.
func NewWithConfig[T any](w io.Writer, encode Encoder[T], config Config) (*Writer[T], error) {
	if w == nil {
		return nil, validation.ValidateNotNil("writer", "writer", nil)
	}
	if encode == nil {
		return nil, validation.ValidateNotNil("writer", "encoder", nil)
	}
	if config.BufferSize == 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if err := validation.ValidatePositive("writer", "BufferSize", config.BufferSize); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("writer", "FlushEvery", config.FlushEvery); err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = DefaultConfig().Name
	}

	out := &countingWriter{w: w}
	if config.Metrics != nil {
		out.bytes = config.Metrics.WriterBytesWritten.WithLabelValues(config.Name)
	}

	return &Writer[T]{
		out:    out,
		buf:    bufio.NewWriterSize(out, config.BufferSize),
		encode: encode,
		config: config,
	}, nil
}

// Write encodes v and appends it as one line.
func (w *Writer[T]) Write(v T) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}

	line, err := w.encode(v)
	if err != nil {
		return w.fail(&encodeError{fmt.Errorf("writer %s encode: %w", w.config.Name, err)})
	}
	if _, err := w.buf.Write(line); err != nil {
		return w.fail(fmt.Errorf("writer %s: %w", w.config.Name, err))
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return w.fail(fmt.Errorf("writer %s: %w", w.config.Name, err))
	}
	w.stats.Lines++
	w.pending++

	if w.config.FlushEvery > 0 && w.pending >= w.config.FlushEvery {
		return w.flushLocked()
	}
	return nil
}

// Flush writes any buffered lines to the underlying writer.
func (w *Writer[T]) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	return w.flushLocked()
}

// Close flushes and marks the writer closed. The underlying writer is owned
// by the caller and is not closed. Calling Close again returns nil.
func (w *Writer[T]) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	return w.flushLocked()
}

// Drain writes every element of it, flushes and closes it, and returns the
// number of lines written. Iterator and encode errors stop the drain unless
// ContinueOnError is set; write errors always stop it.
func (w *Writer[T]) Drain(ctx context.Context, it stream.Iterator[T]) (int, error) {
	defer func() { _ = it.Close() }()

	written := 0
	for {
		value, ok, err := it.Next(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return written, errors.Join(ctxErr, w.Flush())
			}
			w.mu.Lock()
			err = w.fail(err)
			w.mu.Unlock()
			if w.config.ContinueOnError {
				continue
			}
			return written, errors.Join(err, w.Flush())
		}
		if !ok {
			return written, w.Flush()
		}

		if err := w.Write(value); err != nil {
			if w.config.ContinueOnError && isEncodeError(err) {
				continue
			}
			return written, err
		}
		written++
	}
}

// Stats returns a snapshot of the writer's counters.
func (w *Writer[T]) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	stats := w.stats
	stats.BytesWritten = w.out.n
	return stats
}

// Buffered returns the number of bytes waiting to be flushed.
func (w *Writer[T]) Buffered() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Buffered()
}

func (w *Writer[T]) flushLocked() error {
	start := time.Now()
	before := w.out.n

	if err := w.buf.Flush(); err != nil {
		return w.fail(fmt.Errorf("writer %s flush: %w", w.config.Name, err))
	}
	w.pending = 0
	w.stats.FlushCount++
	w.stats.LastFlush = time.Now()

	if w.config.Metrics != nil {
		w.config.Metrics.WriterFlushes.WithLabelValues(w.config.Name).Inc()
	}
	if w.config.OnFlush != nil {
		w.config.OnFlush(int(w.out.n-before), time.Since(start))
	}
	return nil
}

func (w *Writer[T]) fail(err error) error {
	w.stats.ErrorCount++
	if w.config.OnError != nil {
		w.config.OnError(err)
	}
	return err
}

// countingWriter counts bytes that reach the destination.
type countingWriter struct {
	w     io.Writer
	n     int64
	bytes prometheus.Counter
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	if c.bytes != nil && n > 0 {
		c.bytes.Add(float64(n))
	}
	return n, err
}

// encodeError marks errors returned by the Encoder so Drain can skip them.
type encodeError struct{ err error }

func (e *encodeError) Error() string { return e.err.Error() }
func (e *encodeError) Unwrap() error { return e.err }

func isEncodeError(err error) bool {
	var e *encodeError
	return errors.As(err, &e)
}
