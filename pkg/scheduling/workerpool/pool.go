package workerpool

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/forkflow/pkg/common/validation"
	"github.com/vnykmshr/forkflow/pkg/metrics"
)

const (
	// DefaultWorkers is the worker count used by DefaultConfig.
	DefaultWorkers = 4

	// DefaultPollInterval bounds each wait for a result while the work queue is full.
	DefaultPollInterval = 100 * time.Millisecond
)

// Channel names passed to Config.OnSend.
const (
	ChannelWork   = "work"
	ChannelResult = "result"
)

// Config holds configuration options for a parallel join.
type Config struct {
	// Workers is the number of workers. Must be greater than 0.
	Workers int

	// BufferSize is the work queue capacity. Zero means twice Workers.
	BufferSize int

	// PollInterval bounds each wait for a result while the work queue is
	// full. Zero means DefaultPollInterval.
	PollInterval time.Duration

	// Name labels the run in logs and metrics. Defaults to the pipeline name.
	Name string

	// Logger receives lifecycle events. Nil disables logging.
	Logger *zerolog.Logger

	// Metrics receives join metrics. Nil disables metrics.
	Metrics *metrics.Registry

	// OnSend is called for every message placed on the work or result queue.
	// It may be called concurrently from several workers.
	OnSend func(channel string, kind Kind)

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops, after its Done was sent.
	OnWorkerStop func(workerID int)
}

// DefaultConfig returns a configuration with DefaultWorkers workers.
func DefaultConfig() Config {
	return Config{
		Workers:      DefaultWorkers,
		PollInterval: DefaultPollInterval,
	}
}

// normalize applies defaults and validates the result.
func (c Config) normalize() (Config, error) {
	if err := validation.ValidatePositive("workerpool", "Workers", c.Workers); err != nil {
		return c, err
	}
	if c.BufferSize == 0 {
		c.BufferSize = 2 * c.Workers
	}
	if err := validation.ValidatePositive("workerpool", "BufferSize", c.BufferSize); err != nil {
		return c, err
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	if err := validation.ValidatePositiveDuration("workerpool", "PollInterval", c.PollInterval); err != nil {
		return c, err
	}
	return c, nil
}
