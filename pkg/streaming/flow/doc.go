/*
Package flow is the high level forkflow API: a sequential iterator with
chainable stages that can fork into a parallel section and join back.

	it, err := flow.FromSlice(urls).
		Filter(isHTTPS).          // sequential
		Fork(8).                  // 8 workers
		Map(fetch).               // parallel
		Filter(isOK).             // parallel
		Join()                    // back to sequential, unordered
	if err != nil {
		return err
	}
	pages, err := it.Take(100).ToSlice(ctx)

Sequential stages run in the caller's goroutine and keep input order. Stages
between Fork and Join run on every worker; Parallel only offers map, trymap,
filter and flatten because positional stages would apply per worker.

Stages can be added until the iterator is first pulled (Sequential) or
joined (Parallel). Later additions are reported by Err as
errors.ErrPipelineFrozen. Fork defaults to DefaultWorkers workers.
*/
package flow
