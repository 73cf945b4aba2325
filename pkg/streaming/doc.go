/*
Package streaming groups the iterator side of forkflow.

  - stream: the Iterator contract, sources, transforms and terminals
  - flow: Sequential and Parallel builders over stream iterators
  - channel: the queues that carry work and results between goroutines
  - redisq: redis lists as iterator sources and drain targets
  - writer: newline delimited output for iterators

Basic usage:

	squares := flow.FromSlice([]int{1, 2, 3}).Map(func(x int) int { return x * x })

	w, _ := writer.New(os.Stdout, writer.Text[int]())
	n, err := w.Drain(ctx, squares)

Every iterator is pulled with Next(ctx) and released with Close. An error
returned by Next belongs to that step only; the caller may keep pulling.
*/
package streaming
