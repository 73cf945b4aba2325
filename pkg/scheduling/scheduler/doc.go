// Package scheduler runs pipeline jobs on cron schedules.
//
// It wraps github.com/robfig/cron/v3 with job IDs, per-job run statistics,
// Prometheus metrics and zerolog logging:
//
//	s, _ := scheduler.New(scheduler.Config{Logger: &logger, Metrics: metrics.DefaultRegistry})
//	_ = s.Schedule("export", "*/15 * * * *", job)
//	s.Start()
//	defer func() { <-s.Stop() }()
//
// Specs use the standard five fields, descriptors such as "@hourly", or
// "@every 30s". Config.Seconds accepts an optional leading seconds field.
//
// # Pipeline jobs
//
// PipelineJob pairs a source, which builds a fresh iterator for every run, with
// a sink that drains it:
//
//	job := scheduler.PipelineJob(
//		func(ctx context.Context) (stream.Iterator[Event], error) {
//			src, err := redisq.NewSource[Event](client, redisq.Config{Key: "events"})
//			if err != nil {
//				return nil, err
//			}
//			return flow.From[Event](src).Fork(8).Map(enrich).Join()
//		},
//		out.Drain,
//	)
//
// The logger attached to the run context, available through zerolog.Ctx,
// carries the job ID.
//
// # Failures
//
// A run fails when the job returns an error, panics (ErrJobPanic) or exceeds
// Config.Timeout. Failures are counted, logged at warn level and passed to
// Config.OnError; the job stays scheduled. Stop cancels the context of running
// jobs and its channel closes when they have returned.
package scheduler
