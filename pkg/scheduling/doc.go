/*
Package scheduling groups the execution side of forkflow.

  - pipeline: an append-only list of stages applied to an iterator
  - workerpool: Join runs a pipeline on N workers fed from one iterator
  - scheduler: runs pipeline jobs on cron schedules

Pipeline:

	p := pipeline.New[int]().
		Map(double).
		Filter(positive)
	it := p.Apply(stream.FromSlice(xs))

Worker pool:

	out, err := workerpool.Join(input, p, workerpool.Config{Workers: 4})
	if err != nil {
		return err
	}
	defer out.Close()
	results, err := stream.ToSlice(ctx, out)

The coordinator keeps at most BufferSize items queued for the workers,
sends one stop message per worker once the input is exhausted and ends after
every worker has reported done.

Scheduler:

	s, _ := scheduler.New(scheduler.Config{})
	_ = s.Schedule("nightly", "0 2 * * *", job)
	s.Start()
	defer func() { <-s.Stop() }()
*/
package scheduling
