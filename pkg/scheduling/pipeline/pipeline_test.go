package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/vnykmshr/forkflow/internal/testutil"
	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

func run[T any](t *testing.T, p *Pipeline[T], input []T) []T {
	t.Helper()
	it, err := p.Apply(stream.FromSlice(input))
	testutil.AssertNoError(t, err)
	out, err := stream.ToSlice(context.Background(), it)
	testutil.AssertNoError(t, err)
	return out
}

func TestNew(t *testing.T) {
	p := New[int]()
	testutil.AssertEqual(t, len(p.GetStages()), 0)
	testutil.AssertEqual(t, p.Name(), "default")
	testutil.AssertEqual(t, p.Frozen(), false)
	testutil.AssertNoError(t, p.Err())
}

func TestNewWithConfig(t *testing.T) {
	var added []string
	p := NewWithConfig[int](Config{
		Name:         "ingest",
		OnStageAdded: func(stage string, position int) { added = append(added, fmt.Sprintf("%d:%s", position, stage)) },
	})
	p.Map(func(x int) int { return x }).Filter(func(int) bool { return true })

	testutil.AssertEqual(t, p.Name(), "ingest")
	testutil.AssertEqual(t, strings.Join(added, ","), "0:map,1:filter")
}

func TestAddStage(t *testing.T) {
	p := New[string]()
	stage := NewStageFunc("upper", func(src stream.Iterator[string]) stream.Iterator[string] {
		return stream.Map(src, strings.ToUpper)
	})

	testutil.AssertNoError(t, p.AddStage(stage))

	stages := p.GetStages()
	testutil.AssertEqual(t, len(stages), 1)
	testutil.AssertEqual(t, stages[0].Name(), "upper")
	testutil.AssertEqual(t, stages[0].Kind(), KindCustom)
}

func TestEmptyPipelineIsIdentity(t *testing.T) {
	out := run(t, New[int](), []int{3, 1, 2})
	testutil.AssertEqual(t, fmt.Sprint(out), "[3 1 2]")
}

func TestStagesApplyInOrder(t *testing.T) {
	p := New[int]().
		Map(func(x int) int { return x + 1 }).
		Filter(func(x int) bool { return x%2 == 0 }).
		Map(func(x int) int { return x * 10 })

	out := run(t, p, []int{0, 1, 2, 3, 4})
	testutil.AssertEqual(t, fmt.Sprint(out), "[20 40]")
	testutil.AssertEqual(t, p.String(), "map -> filter -> map")
}

func TestPositionalStages(t *testing.T) {
	p := New[int]().Skip(1).Step(2).Take(3)
	testutil.AssertNoError(t, p.Err())

	out := run(t, p, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	testutil.AssertEqual(t, fmt.Sprint(out), "[1 3 5]")
	testutil.AssertEqual(t, p.Stateless(), false)
}

func TestFlattenStage(t *testing.T) {
	p := New[any]().Flatten().Map(func(v any) any { return v.(int) * 2 })
	out := run(t, p, []any{[]int{1, 2}, []int{}, []int{3}})
	testutil.AssertEqual(t, fmt.Sprint(out), "[2 4 6]")
	testutil.AssertEqual(t, p.Stateless(), true)
}

func TestStepRecordsConfigurationError(t *testing.T) {
	p := New[int]().Map(func(x int) int { return x }).Step(0).Filter(func(int) bool { return true })

	err := p.Err()
	testutil.AssertEqual(t, fferrors.IsValidationError(err), true)
	testutil.AssertEqual(t, errors.Is(err, fferrors.ErrInvalidConfiguration), true)

	// stages after the failure are still appended
	testutil.AssertEqual(t, p.Len(), 2)

	_, applyErr := p.Apply(stream.Empty[int]())
	testutil.AssertEqual(t, applyErr, err)
}

func TestFrozenAfterApply(t *testing.T) {
	p := New[int]().Map(func(x int) int { return x })
	_, err := p.Apply(stream.Empty[int]())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, p.Frozen(), true)

	err = p.AddStage(MapStage(func(x int) int { return x }))
	testutil.AssertEqual(t, errors.Is(err, fferrors.ErrPipelineFrozen), true)
	testutil.AssertEqual(t, p.Len(), 1)
}

func TestChainAfterFreezeRecordsError(t *testing.T) {
	p := New[int]()
	p.Freeze()

	p.Filter(func(int) bool { return true }).Map(func(x int) int { return x })
	testutil.AssertEqual(t, errors.Is(p.Err(), fferrors.ErrPipelineFrozen), true)
	testutil.AssertEqual(t, p.Len(), 0)
}

func TestApplySharesStagesAcrossCalls(t *testing.T) {
	p := New[int]().Map(func(x int) int { return x * 2 })

	for i := 0; i < 3; i++ {
		out := run(t, p, []int{1, 2})
		testutil.AssertEqual(t, fmt.Sprint(out), "[2 4]")
	}
}

func TestTryMapWrapsStageError(t *testing.T) {
	cause := errors.New("odd")
	p := New[int]().TryMap(func(x int) (int, error) {
		if x%2 == 1 {
			return 0, cause
		}
		return x, nil
	})

	it, err := p.Apply(stream.FromSlice([]int{1, 2}))
	testutil.AssertNoError(t, err)

	_, ok, err := it.Next(context.Background())
	testutil.AssertEqual(t, ok, false)
	var stageErr *fferrors.StageError
	if !errors.As(err, &stageErr) {
		t.Fatalf("expected StageError, got %v", err)
	}
	testutil.AssertEqual(t, stageErr.Stage, "trymap")
	testutil.AssertEqual(t, errors.Is(err, cause), true)

	v, ok, err := it.Next(context.Background())
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, v, 2)
}

func TestApplyRecoverConvertsPanics(t *testing.T) {
	p := New[int]().
		Map(func(x int) int { return x + 1 }).
		Filter(func(x int) bool {
			if x == 2 {
				panic("bad element")
			}
			return true
		})

	it, err := p.ApplyRecover(stream.FromSlice([]int{0, 1, 2}))
	testutil.AssertNoError(t, err)

	var values []int
	var errs []error
	for v, err := range stream.All(context.Background(), it) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values = append(values, v)
	}

	testutil.AssertEqual(t, fmt.Sprint(values), "[1 3]")
	testutil.AssertEqual(t, len(errs), 1)

	var stageErr *fferrors.StageError
	if !errors.As(errs[0], &stageErr) {
		t.Fatalf("expected StageError, got %v", errs[0])
	}
	testutil.AssertEqual(t, stageErr.Stage, "filter")
	testutil.AssertEqual(t, errors.Is(errs[0], fferrors.ErrStagePanic), true)
	testutil.AssertEqual(t, strings.Contains(errs[0].Error(), "bad element"), true)
}

func TestApplyPropagatesPanics(t *testing.T) {
	p := New[int]().Map(func(int) int { panic("boom") })
	it, err := p.Apply(stream.FromSlice([]int{1}))
	testutil.AssertNoError(t, err)

	defer func() {
		if r := recover(); r != "boom" {
			t.Fatalf("expected panic %q, got %v", "boom", r)
		}
	}()
	_, _, _ = it.Next(context.Background())
}

func TestKindStrings(t *testing.T) {
	tests := []struct {
		kind      Kind
		name      string
		stateless bool
	}{
		{KindMap, "map", true},
		{KindTryMap, "trymap", true},
		{KindFilter, "filter", true},
		{KindFlatten, "flatten", true},
		{KindTake, "take", false},
		{KindSkip, "skip", false},
		{KindStep, "step", false},
		{KindCustom, "custom", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, tt.kind.String(), tt.name)
			testutil.AssertEqual(t, tt.kind.Stateless(), tt.stateless)
		})
	}
}
