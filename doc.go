/*
Package forkflow provides lazy iterator pipelines that run sequentially or
fan out across a fixed pool of workers and fan back in.

Streaming (pkg/streaming):
  - stream: pull iterators, sources, stage transforms and terminals
  - flow: Sequential iterators with Fork, and Parallel sections with Join
  - channel: bounded and unbounded queues used by the coordinator
  - redisq: redis list sources and sinks
  - writer: buffered line writer that drains iterators

Scheduling (pkg/scheduling):
  - pipeline: ordered stage lists, frozen on first use
  - workerpool: the fork/join coordinator and its message protocol
  - scheduler: cron triggered pipeline jobs

Example usage:

	import "github.com/vnykmshr/forkflow/pkg/streaming/flow"

	joined, err := flow.FromSlice(urls).
		Fork(8).
		TryMap(fetch).
		Filter(ok).
		Join()
	if err != nil {
		return err
	}
	for page, err := range joined.All(ctx) {
		...
	}

Results of a parallel section arrive in completion order. Per item errors
are delivered in place and iteration continues.
*/
package forkflow
