package pipeline

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

// Config holds pipeline configuration options.
type Config struct {
	// Name labels the pipeline in logs and metrics.
	Name string

	// OnStageAdded is called after a stage has been appended.
	OnStageAdded func(stage string, position int)
}

// Pipeline is an ordered, append-only list of stages applied left to right.
//
// A Pipeline is frozen the first time it is applied (or by Freeze). After that
// AddStage fails with errors.ErrPipelineFrozen, so every consumer of a frozen
// pipeline sees the same stage list. The chain helpers record the first
// failure instead of returning it; check Err or the error from Apply.
type Pipeline[T any] struct {
	config Config
	stages []Stage[T]
	frozen bool
	err    error
	mu     sync.RWMutex
}

// New creates an empty pipeline.
func New[T any]() *Pipeline[T] {
	return NewWithConfig[T](Config{})
}

// NewWithConfig creates an empty pipeline with the specified configuration.
func NewWithConfig[T any](config Config) *Pipeline[T] {
	if config.Name == "" {
		config.Name = "default"
	}
	return &Pipeline[T]{
		config: config,
		stages: make([]Stage[T], 0),
	}
}

// Name returns the pipeline name.
func (p *Pipeline[T]) Name() string {
	return p.config.Name
}

// AddStage appends a stage. It fails once the pipeline is frozen.
func (p *Pipeline[T]) AddStage(stage Stage[T]) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.frozen {
		return fmt.Errorf("add %s stage: %w", stage.Name(), errors.ErrPipelineFrozen)
	}
	p.stages = append(p.stages, stage)

	if p.config.OnStageAdded != nil {
		p.config.OnStageAdded(stage.Name(), len(p.stages)-1)
	}
	return nil
}

// Map appends a map stage.
func (p *Pipeline[T]) Map(f func(T) T) *Pipeline[T] {
	return p.chain(MapStage(f), nil)
}

// TryMap appends a map stage whose function may fail per element.
func (p *Pipeline[T]) TryMap(f func(T) (T, error)) *Pipeline[T] {
	return p.chain(TryMapStage(f), nil)
}

// Filter appends a filter stage.
func (p *Pipeline[T]) Filter(pred func(T) bool) *Pipeline[T] {
	return p.chain(FilterStage(pred), nil)
}

// Flatten appends a flatten stage.
func (p *Pipeline[T]) Flatten() *Pipeline[T] {
	return p.chain(FlattenStage[T](), nil)
}

// Take appends a take stage.
func (p *Pipeline[T]) Take(n int) *Pipeline[T] {
	return p.chain(TakeStage[T](n), nil)
}

// Skip appends a skip stage.
func (p *Pipeline[T]) Skip(n int) *Pipeline[T] {
	return p.chain(SkipStage[T](n), nil)
}

// Step appends a step stage. k < 1 is recorded as a configuration error.
func (p *Pipeline[T]) Step(k int) *Pipeline[T] {
	stage, err := StepStage[T](k)
	return p.chain(stage, err)
}

func (p *Pipeline[T]) chain(stage Stage[T], err error) *Pipeline[T] {
	if err == nil {
		err = p.AddStage(stage)
	}
	if err != nil {
		p.mu.Lock()
		if p.err == nil {
			p.err = err
		}
		p.mu.Unlock()
	}
	return p
}

// Err returns the first error recorded by a chain helper.
func (p *Pipeline[T]) Err() error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.err
}

// Freeze prevents further stages from being added.
func (p *Pipeline[T]) Freeze() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frozen = true
}

// Frozen reports whether the pipeline has been frozen.
func (p *Pipeline[T]) Frozen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.frozen
}

// Apply freezes the pipeline and wraps src with every stage in order.
// It returns the first recorded builder error, if any.
func (p *Pipeline[T]) Apply(src stream.Iterator[T]) (stream.Iterator[T], error) {
	return p.apply(src, false)
}

// ApplyRecover is like Apply but converts a panic raised inside a stage into
// a *errors.StageError (wrapping errors.ErrStagePanic) for that element.
func (p *Pipeline[T]) ApplyRecover(src stream.Iterator[T]) (stream.Iterator[T], error) {
	return p.apply(src, true)
}

func (p *Pipeline[T]) apply(src stream.Iterator[T], guard bool) (stream.Iterator[T], error) {
	p.mu.Lock()
	p.frozen = true
	stages, err := p.stages, p.err
	p.mu.Unlock()

	if err != nil {
		return nil, err
	}

	it := src
	for _, stage := range stages {
		it = stage.Apply(it)
		if guard {
			it = &guarded[T]{Iterator: it, stage: stage.Name()}
		}
	}
	return it, nil
}

// GetStages returns a copy of the stage list.
func (p *Pipeline[T]) GetStages() []Stage[T] {
	p.mu.RLock()
	defer p.mu.RUnlock()

	stages := make([]Stage[T], len(p.stages))
	copy(stages, p.stages)
	return stages
}

// Len returns the number of stages.
func (p *Pipeline[T]) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.stages)
}

// Stateless reports whether every stage can run on independent workers.
func (p *Pipeline[T]) Stateless() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, s := range p.stages {
		if !s.Kind().Stateless() {
			return false
		}
	}
	return true
}

// String renders the stage names, e.g. "map -> filter -> flatten".
func (p *Pipeline[T]) String() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return strings.Join(names, " -> ")
}

// guarded recovers panics from the stage it wraps. The innermost guard sees
// the panic first, so the error names the stage whose callback panicked.
type guarded[T any] struct {
	stream.Iterator[T]
	stage string
}

func (g *guarded[T]) Next(ctx context.Context) (value T, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			value, ok = zero, false
			err = &errors.StageError{
				Stage: g.stage,
				Err:   fmt.Errorf("%w: %v\n%s", errors.ErrStagePanic, r, debug.Stack()),
			}
		}
	}()
	return g.Iterator.Next(ctx)
}
