package flow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/scheduling/workerpool"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

func listify(x any) any {
	n := x.(int)
	return []int{n + 10, n + 20, n + 30}
}

func isNegative(x any) bool {
	return x.(int) < 0
}

func delay(x any) any {
	time.Sleep(10 * time.Millisecond)
	return x
}

func rangeAny(n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestSerialFilterOutAllItems(t *testing.T) {
	result, err := FromSlice(rangeAny(10)).Filter(isNegative).ToSlice(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestSerialProduceMoreItems(t *testing.T) {
	result, err := FromSlice(rangeAny(3)).Map(listify).Flatten().ToSlice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []any{10, 20, 30, 11, 21, 31, 12, 22, 32}, result)
}

func TestParallelFilterOutAllItems(t *testing.T) {
	it, err := FromSlice(rangeAny(10)).
		Fork().
		Map(delay).
		Filter(isNegative).
		Join()
	require.NoError(t, err)

	result, err := it.ToSlice(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestParallelProduceMoreItems(t *testing.T) {
	it, err := FromSlice(rangeAny(3)).
		Fork().
		Map(delay).
		Map(listify).
		Flatten().
		Join()
	require.NoError(t, err)

	result, err := it.ToSlice(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []any{10, 20, 30, 11, 21, 31, 12, 22, 32}, result)
}

func TestSequentialStagesRunBeforeFork(t *testing.T) {
	it, err := From(stream.Range(0, 20)).
		Filter(func(x int) bool { return x%2 == 0 }).
		Fork(3).
		Map(func(x int) int { return x * 10 }).
		Join()
	require.NoError(t, err)

	result, err := it.Filter(func(x int) bool { return x < 100 }).ToSlice(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 20, 40, 60, 80}, result)
}

func TestParallelFasterThanSerial(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	ctx := context.Background()

	start := time.Now()
	_, err := FromSlice(rangeAny(8)).Map(delay).ToSlice(ctx)
	require.NoError(t, err)
	serial := time.Since(start)

	start = time.Now()
	it, err := FromSlice(rangeAny(8)).Fork(8).Map(delay).Join()
	require.NoError(t, err)
	_, err = it.ToSlice(ctx)
	require.NoError(t, err)
	parallel := time.Since(start)

	assert.Less(t, parallel, serial)
}

func TestSequentialPositionalStages(t *testing.T) {
	result, err := From(stream.Range(0, 100)).Skip(10).Step(10).Take(3).ToSlice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20, 30}, result)
}

func TestSequentialStepError(t *testing.T) {
	it := FromSlice([]int{1, 2, 3}).Step(0)
	assert.ErrorIs(t, it.Err(), fferrors.ErrInvalidConfiguration)

	_, _, err := it.Next(context.Background())
	assert.ErrorIs(t, err, fferrors.ErrInvalidConfiguration)
	require.NoError(t, it.Close())
}

func TestSequentialFrozenAfterFirstNext(t *testing.T) {
	it := FromSlice([]int{1, 2, 3}).Map(func(x int) int { return x + 1 })

	v, ok, err := it.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, v)

	it.Filter(func(int) bool { return false })
	assert.ErrorIs(t, it.Err(), fferrors.ErrPipelineFrozen)

	// the late stage did not apply
	rest, err := it.ToSlice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, rest)
}

func TestParallelFrozenAfterJoin(t *testing.T) {
	par := FromSlice([]int{1, 2}).Fork(2).Map(func(x int) int { return x })
	it, err := par.Join()
	require.NoError(t, err)
	defer it.Close()

	par.Filter(func(int) bool { return true })
	assert.ErrorIs(t, par.Err(), fferrors.ErrPipelineFrozen)
}

func TestForkInvalidWorkers(t *testing.T) {
	for _, n := range []int{0, -2} {
		src := FromSlice([]int{1})
		_, err := src.Fork(n).Map(func(x int) int { return x }).Join()
		require.Error(t, err)
		assert.True(t, fferrors.IsValidationError(err))
		require.NoError(t, src.Close())
	}
}

func TestParallelInvalidBufferSize(t *testing.T) {
	_, err := FromSlice([]int{1}).Fork(2).WithBufferSize(-1).Join()
	var verr *fferrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "BufferSize", verr.Field)
}

func TestParallelTryMapErrors(t *testing.T) {
	bad := errors.New("bad")
	it, err := FromSlice([]int{1, 2, 3, 4}).
		Fork(2).
		TryMap(func(x int) (int, error) {
			if x%2 == 0 {
				return 0, bad
			}
			return x, nil
		}).
		Join()
	require.NoError(t, err)

	var values []int
	var errs []error
	for v, err := range it.All(context.Background()) {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values = append(values, v)
	}

	assert.ElementsMatch(t, []int{1, 3}, values)
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, bad)
	}
}

func TestParallelOnSendCountsProtocol(t *testing.T) {
	var mu sync.Mutex
	var stops, dones int

	it, err := FromSlice([]int{1, 2, 3, 4, 5}).
		Fork(4).
		WithPollInterval(time.Millisecond).
		WithOnSend(func(_ string, kind workerpool.Kind) {
			mu.Lock()
			defer mu.Unlock()
			switch kind {
			case workerpool.KindStop:
				stops++
			case workerpool.KindDone:
				dones++
			}
		}).
		Join()
	require.NoError(t, err)

	_, err = it.ToSlice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stops)
	assert.Equal(t, 4, dones)
}

func TestFromSeq(t *testing.T) {
	seq := func(yield func(string) bool) {
		for _, s := range []string{"a", "b", "c"} {
			if !yield(s) {
				return
			}
		}
	}

	result, err := FromSeq(seq).Take(2).ToSlice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, result)
}
