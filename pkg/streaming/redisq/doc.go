// Package redisq connects forkflow iterators to redis lists.
//
// A Source pops JSON encoded elements with LPOP (or BLPOP when BlockTimeout is
// set) and implements stream.Iterator. A Sink appends elements with RPUSH.
// Together they let a flow consume a work list shared between processes:
//
//	src, _ := redisq.NewSource[Job](rdb, redisq.Config{Key: "jobs"})
//	dst, _ := redisq.NewSink[Job](rdb, redisq.Config{Key: "jobs:done"})
//
//	it, err := flow.From[Job](src).Fork(8).Map(run).Join()
//	if err != nil {
//		return err
//	}
//	n, err := dst.Drain(ctx, it)
package redisq
