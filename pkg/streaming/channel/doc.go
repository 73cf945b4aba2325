/*
Package channel provides Queue, a FIFO channel with an optional capacity bound
and a time-bounded receive.

Unlike a native Go channel, a Queue reports its length at any time, can be
received from with a timeout without allocating a select per call, keeps
buffered values receivable after Close, and records usage statistics.

	work := channel.New[int](8)         // bounded: Send blocks at 8 elements
	results := channel.NewUnbounded[int]() // never blocks senders

	_ = work.Send(ctx, 42)
	v, ok, err := results.ReceiveTimeout(100 * time.Millisecond)
	switch {
	case err != nil:
		// closed and empty
	case !ok:
		// timed out, try again
	default:
		use(v)
	}

The OnSend hook in Config observes every accepted value and is the place to
attach instrumentation. It runs under the queue lock.
*/
package channel
