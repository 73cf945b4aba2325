package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	fferrors "github.com/vnykmshr/forkflow/pkg/common/errors"
	"github.com/vnykmshr/forkflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/forkflow/pkg/streaming/channel"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

// worker applies one copy of the pipeline to the items it takes from the
// work queue.
type worker[T any] struct {
	id       int
	work     channel.Queue[Message[T]]
	results  channel.Queue[Message[T]]
	pipeline *pipeline.Pipeline[T]
	config   *Config
	log      zerolog.Logger
}

// run is the main loop for a worker. It always ends by sending exactly one
// Done, even after stage errors or panics.
func (w *worker[T]) run() error {
	if w.config.OnWorkerStart != nil {
		w.config.OnWorkerStart(w.id)
	}
	w.log.Debug().Int("worker_id", w.id).Msg("worker started")

	src := &workSource[T]{queue: w.work}
	var it stream.Iterator[T]

	defer func() {
		w.send(Done[T](w.id))
		w.log.Debug().Int("worker_id", w.id).Msg("worker stopped")
		if w.config.OnWorkerStop != nil {
			w.config.OnWorkerStop(w.id)
		}
	}()

	// Handle panics outside of stage callbacks
	defer func() {
		if r := recover(); r != nil {
			w.fail(&fferrors.StageError{
				Stage: "worker",
				Err:   fmt.Errorf("%w: %v\n%s", fferrors.ErrStagePanic, r, debug.Stack()),
			})
			if it != nil {
				_ = it.Close()
			}
			src.drain()
		}
	}()

	it, err := w.pipeline.ApplyRecover(src)
	if err != nil {
		w.fail(err)
		src.drain()
		return nil
	}

	ctx := context.Background()
	for {
		value, ok, err := it.Next(ctx)
		if err != nil {
			w.fail(err)
			continue
		}
		if !ok {
			break
		}
		w.send(Data(value))
	}

	// a pipeline may finish before its input does
	src.drain()
	_ = it.Close()
	return nil
}

func (w *worker[T]) fail(err error) {
	w.log.Warn().Err(err).Int("worker_id", w.id).Msg("stage failed")
	msg := Fail[T](w.id, &fferrors.WorkerError{WorkerID: w.id, Err: err})
	w.send(msg)
}

// send places msg on the result queue. The result queue is unbounded and is
// closed only after every worker has returned, so this never blocks or fails.
func (w *worker[T]) send(msg Message[T]) {
	_ = w.results.Send(context.Background(), msg)
}

// workSource exposes the work queue as an iterator that ends at the first
// Stop, or when the queue is closed.
type workSource[T any] struct {
	queue   channel.Queue[Message[T]]
	stopped bool
}

func (s *workSource[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	for !s.stopped {
		msg, err := s.queue.Receive(context.Background())
		if err != nil {
			s.stopped = true
			break
		}
		switch msg.Kind {
		case KindStop:
			s.stopped = true
		case KindData:
			return msg.Value, true, nil
		}
	}
	return zero, false, nil
}

func (s *workSource[T]) Close() error {
	return nil
}

// drain discards work until Stop so the coordinator never waits on a worker
// that has given up.
func (s *workSource[T]) drain() {
	for !s.stopped {
		_, _, _ = s.Next(context.Background())
	}
}
