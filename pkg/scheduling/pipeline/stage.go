package pipeline

import (
	"github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

// Kind identifies the transform a Stage performs.
type Kind int

const (
	KindMap Kind = iota
	KindTryMap
	KindFilter
	KindFlatten
	KindTake
	KindSkip
	KindStep
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindMap:
		return "map"
	case KindTryMap:
		return "trymap"
	case KindFilter:
		return "filter"
	case KindFlatten:
		return "flatten"
	case KindTake:
		return "take"
	case KindSkip:
		return "skip"
	case KindStep:
		return "step"
	default:
		return "custom"
	}
}

// Stateless reports whether a stage of this kind treats every element
// independently of the others. Only stateless stages may run in parallel.
func (k Kind) Stateless() bool {
	switch k {
	case KindMap, KindTryMap, KindFilter, KindFlatten:
		return true
	default:
		return false
	}
}

// Stage is a single transform in a pipeline.
type Stage[T any] interface {
	// Name returns a human readable identifier for this stage.
	Name() string

	// Kind returns the transform kind.
	Kind() Kind

	// Apply wraps src with this stage's transform.
	Apply(src stream.Iterator[T]) stream.Iterator[T]
}

// StageFunc is a Stage backed by a function.
type StageFunc[T any] struct {
	name  string
	kind  Kind
	apply func(stream.Iterator[T]) stream.Iterator[T]
}

// NewStageFunc creates a custom stage from a function.
func NewStageFunc[T any](name string, apply func(stream.Iterator[T]) stream.Iterator[T]) Stage[T] {
	return &StageFunc[T]{name: name, kind: KindCustom, apply: apply}
}

// Name returns the stage name.
func (sf *StageFunc[T]) Name() string {
	return sf.name
}

// Kind returns the stage kind.
func (sf *StageFunc[T]) Kind() Kind {
	return sf.kind
}

// Apply implements the Stage interface for StageFunc.
func (sf *StageFunc[T]) Apply(src stream.Iterator[T]) stream.Iterator[T] {
	return sf.apply(src)
}

// MapStage returns a stage that applies f to every element.
func MapStage[T any](f func(T) T) Stage[T] {
	return &StageFunc[T]{name: "map", kind: KindMap, apply: func(src stream.Iterator[T]) stream.Iterator[T] {
		return stream.Map(src, f)
	}}
}

// TryMapStage returns a stage that applies a fallible f to every element.
// Errors from f are reported as *errors.StageError for that element.
func TryMapStage[T any](f func(T) (T, error)) Stage[T] {
	const name = "trymap"
	return &StageFunc[T]{name: name, kind: KindTryMap, apply: func(src stream.Iterator[T]) stream.Iterator[T] {
		return stream.TryMap(src, func(v T) (T, error) {
			out, err := f(v)
			if err != nil {
				return out, &errors.StageError{Stage: name, Err: err}
			}
			return out, nil
		})
	}}
}

// FilterStage returns a stage that keeps elements matching pred.
func FilterStage[T any](pred func(T) bool) Stage[T] {
	return &StageFunc[T]{name: "filter", kind: KindFilter, apply: func(src stream.Iterator[T]) stream.Iterator[T] {
		return stream.Filter(src, pred)
	}}
}

// FlattenStage returns a stage that expands each element into its contents.
func FlattenStage[T any]() Stage[T] {
	return &StageFunc[T]{name: "flatten", kind: KindFlatten, apply: stream.Flatten[T]}
}

// TakeStage returns a stage that keeps at most n elements.
func TakeStage[T any](n int) Stage[T] {
	return &StageFunc[T]{name: "take", kind: KindTake, apply: func(src stream.Iterator[T]) stream.Iterator[T] {
		return stream.Take(src, n)
	}}
}

// SkipStage returns a stage that drops the first n elements.
func SkipStage[T any](n int) Stage[T] {
	return &StageFunc[T]{name: "skip", kind: KindSkip, apply: func(src stream.Iterator[T]) stream.Iterator[T] {
		return stream.Skip(src, n)
	}}
}

// StepStage returns a stage that keeps every k-th element, starting with the
// first. k must be at least 1.
func StepStage[T any](k int) (Stage[T], error) {
	// validate once up front so Apply cannot fail
	if _, err := stream.Step(stream.Empty[T](), k); err != nil {
		return nil, err
	}
	return &StageFunc[T]{name: "step", kind: KindStep, apply: func(src stream.Iterator[T]) stream.Iterator[T] {
		it, _ := stream.Step(src, k)
		return it
	}}, nil
}
