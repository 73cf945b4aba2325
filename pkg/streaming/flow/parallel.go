package flow

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/forkflow/pkg/metrics"
	"github.com/vnykmshr/forkflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/forkflow/pkg/scheduling/workerpool"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

// DefaultWorkers is the worker count used by Fork without an argument.
const DefaultWorkers = workerpool.DefaultWorkers

// Parallel collects the stages of a parallel section. Only stages that treat
// every element independently are offered. Join starts the workers.
type Parallel[T any] struct {
	input    stream.Iterator[T]
	pipeline *pipeline.Pipeline[T]
	config   workerpool.Config
}

func newParallel[T any](input stream.Iterator[T], workers int) *Parallel[T] {
	config := workerpool.DefaultConfig()
	config.Workers = workers
	return &Parallel[T]{
		input:    input,
		pipeline: pipeline.New[T](),
		config:   config,
	}
}

// Map transforms every element on the workers.
func (p *Parallel[T]) Map(f func(T) T) *Parallel[T] {
	p.pipeline.Map(f)
	return p
}

// TryMap transforms every element with a function that may fail.
func (p *Parallel[T]) TryMap(f func(T) (T, error)) *Parallel[T] {
	p.pipeline.TryMap(f)
	return p
}

// Filter keeps the elements for which pred returns true.
func (p *Parallel[T]) Filter(pred func(T) bool) *Parallel[T] {
	p.pipeline.Filter(pred)
	return p
}

// Flatten replaces every element by the elements it contains.
func (p *Parallel[T]) Flatten() *Parallel[T] {
	p.pipeline.Flatten()
	return p
}

// WithBufferSize sets the work queue capacity.
func (p *Parallel[T]) WithBufferSize(n int) *Parallel[T] {
	p.config.BufferSize = n
	return p
}

// WithPollInterval sets how long the coordinator waits for a result while
// the work queue is full.
func (p *Parallel[T]) WithPollInterval(d time.Duration) *Parallel[T] {
	p.config.PollInterval = d
	return p
}

// WithLogger attaches a logger to the run.
func (p *Parallel[T]) WithLogger(logger *zerolog.Logger) *Parallel[T] {
	p.config.Logger = logger
	return p
}

// WithMetrics records the run in registry under name.
func (p *Parallel[T]) WithMetrics(registry *metrics.Registry, name string) *Parallel[T] {
	p.config.Metrics = registry
	p.config.Name = name
	return p
}

// WithOnSend observes every protocol message of the run.
func (p *Parallel[T]) WithOnSend(fn func(channel string, kind workerpool.Kind)) *Parallel[T] {
	p.config.OnSend = fn
	return p
}

// Err returns the first error recorded while adding stages.
func (p *Parallel[T]) Err() error {
	return p.pipeline.Err()
}

// Join starts the workers and returns a sequential iterator over their
// results. Results carry no ordering across workers. A configuration error
// is returned before any worker starts.
func (p *Parallel[T]) Join() (*Sequential[T], error) {
	out, err := workerpool.Join(p.input, p.pipeline, p.config)
	if err != nil {
		return nil, err
	}
	return From[T](out), nil
}
