package redisq

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/metrics"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

type job struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// newTestClient creates a redis.Client backed by miniredis for testing.
func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mini, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mini
}

func TestConfigValidation(t *testing.T) {
	client, _ := newTestClient(t)

	tests := []struct {
		name   string
		client redis.Cmdable
		config Config
	}{
		{"nil client", nil, Config{Key: "jobs"}},
		{"empty key", client, Config{}},
		{"negative block timeout", client, Config{Key: "jobs", BlockTimeout: -time.Second}},
		{"negative batch size", client, Config{Key: "jobs", BatchSize: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSource[job](tt.client, tt.config)
			assert.True(t, fferrors.IsValidationError(err), "source: %v", err)

			_, err = NewSink[job](tt.client, tt.config)
			assert.True(t, fferrors.IsValidationError(err), "sink: %v", err)
		})
	}
}

func TestSinkPushAndSourceRead(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	sink, err := NewSink[job](client, Config{Key: "jobs"})
	require.NoError(t, err)
	require.NoError(t, sink.Push(ctx, job{1, "a"}, job{2, "b"}, job{3, "c"}))

	n, err := sink.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	src, err := NewSource[job](client, Config{Key: "jobs"})
	require.NoError(t, err)

	got, err := stream.ToSlice[job](ctx, src)
	require.NoError(t, err)
	assert.Equal(t, []job{{1, "a"}, {2, "b"}, {3, "c"}}, got)

	n, err = sink.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestSourceDecodeErrorSkipsElement(t *testing.T) {
	client, mini := newTestClient(t)
	ctx := context.Background()

	_, err := mini.Push("jobs", `{"id":1}`, `not json`, `{"id":3}`)
	require.NoError(t, err)

	src, err := NewSource[job](client, Config{Key: "jobs"})
	require.NoError(t, err)

	var ids []int
	var errs int
	for v, err := range stream.All[job](ctx, src) {
		if err != nil {
			errs++
			continue
		}
		ids = append(ids, v.ID)
	}

	assert.Equal(t, []int{1, 3}, ids)
	assert.Equal(t, 1, errs)
}

func TestSourceBlocking(t *testing.T) {
	client, mini := newTestClient(t)
	ctx := context.Background()

	_, err := mini.Push("jobs", `{"id":7,"name":"late"}`)
	require.NoError(t, err)

	src, err := NewSource[job](client, Config{Key: "jobs", BlockTimeout: time.Second})
	require.NoError(t, err)

	v, ok, err := src.Next(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, job{7, "late"}, v)

	// an empty list ends the source once the block timeout expires
	_, ok, err = src.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSourceClose(t *testing.T) {
	client, mini := newTestClient(t)
	_, err := mini.Push("jobs", `{"id":1}`)
	require.NoError(t, err)

	src, err := NewSource[job](client, Config{Key: "jobs"})
	require.NoError(t, err)
	require.NoError(t, src.Close())

	_, ok, err := src.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mini.Exists("jobs"), "closed source must not pop")
}

func TestSinkDrainBatches(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	reg := metrics.NewRegistry(prometheus.NewRegistry())
	sink, err := NewSink[int](client, Config{Key: "numbers", BatchSize: 4, Metrics: reg})
	require.NoError(t, err)

	pushed, err := sink.Drain(ctx, stream.Range(0, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, pushed)

	values, err := client.LRange(ctx, "numbers", 0, -1).Result()
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, values)
	assert.Equal(t, 10.0, promtest.ToFloat64(reg.QueueItems.WithLabelValues("numbers", "out")))
}

func TestSinkPushNothing(t *testing.T) {
	client, mini := newTestClient(t)

	sink, err := NewSink[int](client, Config{Key: "empty"})
	require.NoError(t, err)
	require.NoError(t, sink.Push(context.Background()))
	assert.False(t, mini.Exists("empty"))
}

func TestSourceConnectionError(t *testing.T) {
	client, mini := newTestClient(t)
	mini.Close()

	src, err := NewSource[int](client, Config{Key: "jobs"})
	require.NoError(t, err)

	_, ok, err := src.Next(context.Background())
	assert.False(t, ok)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `redisq pop "jobs"`)
}
