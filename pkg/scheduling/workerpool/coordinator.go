package workerpool

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vnykmshr/forkflow/pkg/common/validation"
	"github.com/vnykmshr/forkflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/forkflow/pkg/streaming/channel"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

type phase int

const (
	phaseFeeding phase = iota
	phaseDraining
	phaseDone
)

// Stats holds counters for one join.
type Stats struct {
	Workers           int
	BufferSize        int
	Submitted         int64
	Emitted           int64
	Errors            int64
	Stops             int64
	Dones             int64
	BackpressurePolls int64
}

// Output is the iterator returned by Join. It interleaves feeding input to
// the workers with handing their results to the caller, so no goroutine is
// spent on coordination. Output is not safe for concurrent use.
//
// The context passed to Next is only used to advance the input iterator.
// Waits on the workers do not observe it.
type Output[T any] struct {
	input   stream.Iterator[T]
	config  Config
	runID   string
	work    channel.Queue[Message[T]]
	results channel.Queue[Message[T]]
	group   *errgroup.Group
	log     zerolog.Logger
	metrics *instruments

	phase      phase
	pending    T
	hasPending bool
	active     int
	started    time.Time

	submitted atomic.Int64
	emitted   atomic.Int64
	errors    atomic.Int64
	stops     atomic.Int64
	dones     atomic.Int64
	polls     atomic.Int64
}

// Join starts config.Workers workers, each applying p to the items it takes
// from input, and returns an iterator over their combined results.
//
// Results from one worker arrive in the order that worker produced them;
// there is no ordering across workers. Configuration errors are returned
// before any worker starts. p is frozen; a nil p is treated as empty.
func Join[T any](input stream.Iterator[T], p *pipeline.Pipeline[T], config Config) (*Output[T], error) {
	if err := validation.ValidateNotNil("workerpool", "input", input); err != nil {
		return nil, err
	}
	if p == nil {
		p = pipeline.New[T]()
	}
	if err := p.Err(); err != nil {
		return nil, err
	}

	config, err := config.normalize()
	if err != nil {
		return nil, err
	}
	if config.Name == "" {
		config.Name = p.Name()
	}

	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = *config.Logger
	}

	o := &Output[T]{
		input:   input,
		config:  config,
		runID:   uuid.NewString(),
		group:   new(errgroup.Group),
		metrics: newInstruments(config.Metrics, config.Name),
		active:  config.Workers,
	}
	o.log = logger.With().
		Str("run_id", o.runID).
		Str("pipeline", config.Name).
		Int("workers", config.Workers).
		Int("buffer_size", config.BufferSize).
		Logger()

	o.work = channel.NewWithConfig[Message[T]](channel.Config{
		Capacity: config.BufferSize,
		OnSend:   o.observer(ChannelWork),
	})
	o.results = channel.NewWithConfig[Message[T]](channel.Config{
		OnSend: o.observer(ChannelResult),
	})

	if !p.Stateless() {
		o.log.Warn().Str("stages", p.String()).Msg("pipeline has positional stages; each worker applies them to its own share of the input")
	}
	p.Freeze()

	for i := 0; i < config.Workers; i++ {
		w := &worker[T]{
			id:       i,
			work:     o.work,
			results:  o.results,
			pipeline: p,
			config:   &o.config,
			log:      o.log,
		}
		o.group.Go(w.run)
	}
	o.metrics.activeWorkers(o.active)
	o.log.Debug().Str("stages", p.String()).Msg("join started")

	return o, nil
}

// observer counts protocol messages and forwards them to Config.OnSend.
func (o *Output[T]) observer(name string) func(interface{}) {
	return func(v interface{}) {
		kind := v.(Message[T]).Kind
		switch kind {
		case KindStop:
			o.stops.Add(1)
		case KindDone:
			o.dones.Add(1)
		}
		o.metrics.message(name, kind)
		if o.config.OnSend != nil {
			o.config.OnSend(name, kind)
		}
	}
}

// RunID returns the identifier attached to this join's log events.
func (o *Output[T]) RunID() string {
	return o.runID
}

// Next returns the next result. An error reports a single failed item (or a
// failed pull from the input); the caller may keep calling Next.
func (o *Output[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T

	if o.started.IsZero() {
		o.started = time.Now()
	}

	for {
		switch o.phase {
		case phaseFeeding:
			if !o.hasPending {
				x, ok, err := o.input.Next(ctx)
				if err != nil {
					o.log.Warn().Err(err).Msg("input failed, no more items will be submitted")
					o.shutdown()
					return zero, false, fmt.Errorf("join input: %w", err)
				}
				if !ok {
					o.shutdown()
					continue
				}
				o.pending, o.hasPending = x, true
			}

			if o.work.Len() >= o.config.BufferSize {
				o.polls.Add(1)
				msg, ok, err := o.results.ReceiveTimeout(o.config.PollInterval)
				o.metrics.poll(o.results.Len())
				if err != nil {
					return zero, false, err
				}
				if !ok {
					continue
				}
				if v, yield, err := o.handle(msg); yield || err != nil {
					return v, yield, err
				}
				continue
			}

			// sole sender and the queue has room, so this does not block
			_ = o.work.Send(context.Background(), Data(o.pending))
			o.pending, o.hasPending = zero, false
			o.submitted.Add(1)
			o.metrics.submitted(o.work.Len())

		case phaseDraining:
			if o.active == 0 {
				o.finish()
				return zero, false, nil
			}
			msg, err := o.results.Receive(context.Background())
			if err != nil {
				o.finish()
				return zero, false, err
			}
			if v, yield, err := o.handle(msg); yield || err != nil {
				return v, yield, err
			}

		default:
			return zero, false, nil
		}
	}
}

// handle dispatches one result message by kind.
func (o *Output[T]) handle(msg Message[T]) (T, bool, error) {
	var zero T

	switch msg.Kind {
	case KindData:
		o.emitted.Add(1)
		o.metrics.emitted()
		return msg.Value, true, nil
	case KindError:
		o.errors.Add(1)
		o.metrics.workerError()
		return zero, false, msg.Err
	case KindDone:
		o.active--
		o.metrics.activeWorkers(o.active)
	}
	return zero, false, nil
}

// shutdown sends one Stop per worker and waits for all of them to return.
// Workers never block on the unbounded result queue, so the wait is bounded
// by the work still queued.
func (o *Output[T]) shutdown() {
	_ = o.input.Close()
	for i := 0; i < o.config.Workers; i++ {
		_ = o.work.Send(context.Background(), Stop[T]())
	}
	_ = o.group.Wait()
	o.phase = phaseDraining
	o.log.Debug().Int64("submitted", o.submitted.Load()).Msg("workers stopped, draining results")
}

func (o *Output[T]) finish() {
	o.phase = phaseDone
	_ = o.work.Close()
	_ = o.results.Close()

	elapsed := time.Since(o.started)
	o.metrics.finished(elapsed)
	o.log.Debug().
		Int64("submitted", o.submitted.Load()).
		Int64("emitted", o.emitted.Load()).
		Int64("errors", o.errors.Load()).
		Dur("elapsed", elapsed).
		Msg("join finished")
}

// Close abandons the join. Queued work is discarded, every worker stops after
// its current item, and results not yet returned are dropped. Close waits for
// the workers; it does not interrupt a callback that is still running.
// Close after the iterator is exhausted is a no-op.
func (o *Output[T]) Close() error {
	if o.phase == phaseDone {
		return nil
	}
	if o.phase == phaseFeeding {
		_ = o.input.Close()
	}

	dropped := o.work.Clear()
	_ = o.work.Close()
	_ = o.group.Wait()
	dropped += o.results.Clear()
	_ = o.results.Close()

	o.phase = phaseDone
	o.active = 0
	o.metrics.activeWorkers(0)
	o.log.Debug().Int("dropped", dropped).Msg("join closed early")
	return nil
}

// Stats returns a snapshot of the join counters.
func (o *Output[T]) Stats() Stats {
	return Stats{
		Workers:           o.config.Workers,
		BufferSize:        o.config.BufferSize,
		Submitted:         o.submitted.Load(),
		Emitted:           o.emitted.Load(),
		Errors:            o.errors.Load(),
		Stops:             o.stops.Load(),
		Dones:             o.dones.Load(),
		BackpressurePolls: o.polls.Load(),
	}
}
