package testutil

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrSimulated is returned by MockWriter when configured to fail on the nth write.
var ErrSimulated = errors.New("simulated error")

// MockWriter is an io.Writer that records what it receives and can be told
// to fail.
type MockWriter struct {
	mu          sync.Mutex
	buf         bytes.Buffer
	errorOnNth  int
	writeCount  int
	shouldError bool
	err         error
}

// NewMockWriter creates a new MockWriter.
func NewMockWriter() *MockWriter {
	return &MockWriter{}
}

// Write implements io.Writer.
func (mw *MockWriter) Write(p []byte) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.writeCount++

	if mw.shouldError {
		return 0, mw.err
	}
	if mw.errorOnNth > 0 && mw.writeCount == mw.errorOnNth {
		return 0, ErrSimulated
	}
	return mw.buf.Write(p)
}

// String returns everything written so far.
func (mw *MockWriter) String() string {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.buf.String()
}

// WriteCount returns the number of Write calls.
func (mw *MockWriter) WriteCount() int {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.writeCount
}

// SetErrorOnNth makes the nth Write fail with ErrSimulated.
func (mw *MockWriter) SetErrorOnNth(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.errorOnNth = n
}

// SetAlwaysError makes every Write fail with err.
func (mw *MockWriter) SetAlwaysError(err error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.shouldError = true
	mw.err = err
}

// CountingIterator yields 0, 1, ... Limit-1. When Allow is set, any pull past
// Allow returns ErrOverAdvanced, which makes eager consumers visible in tests.
type CountingIterator struct {
	Limit  int
	Allow  int
	pulls  atomic.Int64
	closed atomic.Bool
}

// ErrOverAdvanced is returned once a CountingIterator is pulled past Allow.
var ErrOverAdvanced = errors.New("iterator advanced too far")

// Next implements stream.Iterator[int].
func (c *CountingIterator) Next(_ context.Context) (int, bool, error) {
	n := int(c.pulls.Add(1))
	if c.Allow > 0 && n > c.Allow {
		return 0, false, ErrOverAdvanced
	}
	if n > c.Limit {
		return 0, false, nil
	}
	return n - 1, true, nil
}

// Close implements stream.Iterator[int].
func (c *CountingIterator) Close() error {
	c.closed.Store(true)
	return nil
}

// Pulls returns how many times Next was called.
func (c *CountingIterator) Pulls() int {
	return int(c.pulls.Load())
}

// Closed reports whether Close was called.
func (c *CountingIterator) Closed() bool {
	return c.closed.Load()
}
