package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/common/validation"
	"github.com/vnykmshr/forkflow/pkg/metrics"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

// Config describes a redis list used as a queue.
type Config struct {
	// Key is the redis list key. Required.
	Key string

	// BlockTimeout makes Source wait up to this long for an element
	// (BLPOP). Zero pops without waiting and ends at the first empty read.
	BlockTimeout time.Duration

	// BatchSize is the number of elements Sink.Drain pushes per RPUSH.
	// Zero means 100.
	BatchSize int

	// Metrics counts moved items under the key name. Nil disables metrics.
	Metrics *metrics.Registry
}

const defaultBatchSize = 100

func (c Config) normalize(client redis.Cmdable) (Config, error) {
	if err := validation.ValidateNotNil("redisq", "client", client); err != nil {
		return c, err
	}
	if c.Key == "" {
		return c, fferrors.NewValidationError("redisq", "Key", c.Key, "cannot be empty").
			WithHint("name the redis list to use")
	}
	if c.BlockTimeout < 0 {
		return c, fferrors.NewValidationError("redisq", "BlockTimeout", c.BlockTimeout, "cannot be negative")
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaultBatchSize
	}
	if err := validation.ValidatePositive("redisq", "BatchSize", c.BatchSize); err != nil {
		return c, err
	}
	return c, nil
}

func (c Config) count(direction string, n int) {
	if c.Metrics != nil && n > 0 {
		c.Metrics.QueueItems.WithLabelValues(c.Key, direction).Add(float64(n))
	}
}

// Source pops JSON encoded elements from the head of a redis list.
// It implements stream.Iterator, so it can feed a sequential or parallel flow.
type Source[T any] struct {
	client redis.Cmdable
	config Config
	done   bool
}

// NewSource creates a Source reading config.Key.
func NewSource[T any](client redis.Cmdable, config Config) (*Source[T], error) {
	config, err := config.normalize(client)
	if err != nil {
		return nil, err
	}
	return &Source[T]{client: client, config: config}, nil
}

// Next pops one element. An element that cannot be decoded is reported as an
// error for that element; the next call continues with the following one.
func (s *Source[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	if s.done {
		return zero, false, nil
	}

	raw, err := s.pop(ctx)
	if errors.Is(err, redis.Nil) {
		s.done = true
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("redisq pop %q: %w", s.config.Key, err)
	}
	s.config.count("in", 1)

	var value T
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return zero, false, fmt.Errorf("redisq decode %q: %w", s.config.Key, err)
	}
	return value, true, nil
}

func (s *Source[T]) pop(ctx context.Context) (string, error) {
	if s.config.BlockTimeout == 0 {
		return s.client.LPop(ctx, s.config.Key).Result()
	}

	res, err := s.client.BLPop(ctx, s.config.BlockTimeout, s.config.Key).Result()
	if err != nil {
		return "", err
	}
	// BLPOP replies with [key, value]
	return res[1], nil
}

// Close implements stream.Iterator. The client is owned by the caller.
func (s *Source[T]) Close() error {
	s.done = true
	return nil
}

// Sink appends JSON encoded elements to the tail of a redis list.
type Sink[T any] struct {
	client redis.Cmdable
	config Config
}

// NewSink creates a Sink writing config.Key.
func NewSink[T any](client redis.Cmdable, config Config) (*Sink[T], error) {
	config, err := config.normalize(client)
	if err != nil {
		return nil, err
	}
	return &Sink[T]{client: client, config: config}, nil
}

// Push appends values in order.
func (s *Sink[T]) Push(ctx context.Context, values ...T) error {
	if len(values) == 0 {
		return nil
	}

	encoded := make([]interface{}, len(values))
	for i, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("redisq encode %q: %w", s.config.Key, err)
		}
		encoded[i] = data
	}

	if err := s.client.RPush(ctx, s.config.Key, encoded...).Err(); err != nil {
		return fmt.Errorf("redisq push %q: %w", s.config.Key, err)
	}
	s.config.count("out", len(values))
	return nil
}

// Drain pushes every element of it in batches and closes it. It stops at the
// first error and returns the number of elements pushed.
func (s *Sink[T]) Drain(ctx context.Context, it stream.Iterator[T]) (int, error) {
	batch := make([]T, 0, s.config.BatchSize)
	pushed := 0

	flush := func() error {
		if err := s.Push(ctx, batch...); err != nil {
			return err
		}
		pushed += len(batch)
		batch = batch[:0]
		return nil
	}

	err := stream.ForEach(ctx, it, func(v T) error {
		batch = append(batch, v)
		if len(batch) >= s.config.BatchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return pushed, err
	}
	return pushed, flush()
}

// Len returns the current list length.
func (s *Sink[T]) Len(ctx context.Context) (int64, error) {
	return s.client.LLen(ctx, s.config.Key).Result()
}
