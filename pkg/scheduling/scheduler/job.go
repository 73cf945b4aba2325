package scheduler

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

// PipelineJob builds a fresh iterator with source on every run and hands it
// to sink, which must drain and close it. Typical sources fork a flow and
// join it; typical sinks are writer.Writer.Drain and redisq.Sink.Drain.
func PipelineJob[T any](
	source func(ctx context.Context) (stream.Iterator[T], error),
	sink func(ctx context.Context, it stream.Iterator[T]) (int, error),
) Job {
	return JobFunc(func(ctx context.Context) error {
		it, err := source(ctx)
		if err != nil {
			return fmt.Errorf("pipeline source: %w", err)
		}

		n, err := sink(ctx, it)
		zerolog.Ctx(ctx).Debug().Int("items", n).Msg("pipeline drained")
		if err != nil {
			return fmt.Errorf("pipeline sink after %d items: %w", n, err)
		}
		return nil
	})
}
