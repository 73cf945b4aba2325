/*
Package workerpool runs a pipeline on a fixed pool of workers and joins their
results back into a single iterator.

Basic usage:

	p := pipeline.New[Order]().
		Map(enrich).
		Filter(isBillable)

	out, err := workerpool.Join(orders, p, workerpool.DefaultConfig())
	if err != nil {
		return err // configuration error, nothing was started
	}
	defer out.Close()

	for order, err := range stream.All(ctx, out) {
		if err != nil {
			log.Printf("order failed: %v", err)
			continue
		}
		bill(order)
	}

How it works:

Join starts Workers goroutines. Each one applies its own copy of the
pipeline to the items it takes from a bounded work queue and puts every result
on an unbounded result queue. The coordinator has no goroutine of its own: it
runs inside Output.Next, feeding input while the work queue has room and
otherwise waiting up to PollInterval for a result to hand back.

Once the input is exhausted the coordinator sends one Stop per worker, waits
for the workers to return, then drains results until it has seen one Done per
worker. Messages are distinguished by Kind; payloads are never compared.

Ordering:

Results from one worker keep the order that worker produced them. There is no
ordering across workers. Stages that depend on element positions (take, skip,
step) apply to each worker's share of the input, not to the whole stream.

Errors:

  - Invalid Config values are reported by Join as *errors.ValidationError
  - A stage error or panic is delivered from Next as *errors.WorkerError;
    the worker keeps going and later items are unaffected
  - A failure of the input iterator is returned once and ends feeding

Configuration:

	cfg := workerpool.Config{
		Workers:      8,
		BufferSize:   32,                     // default 2*Workers
		PollInterval: 50 * time.Millisecond,  // default 100ms
		Logger:       &logger,                // zerolog, optional
		Metrics:      metrics.DefaultRegistry, // optional
		OnSend: func(channel string, kind workerpool.Kind) {
			// observe every protocol message
		},
	}

Limitations:

Joins cannot be canceled. Output.Close abandons a run: it discards queued
work, lets each worker finish the item it holds and waits for them. Results
are not bounded in memory while the consumer is slow to pull.
*/
package workerpool
