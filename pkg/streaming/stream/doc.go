/*
Package stream provides lazy, pull-based iterators and the transforms used by
forkflow pipelines.

An Iterator produces one element per call to Next. Nothing upstream is
evaluated until a consumer asks for an element, so chains of transforms can
be built over infinite sources.

Basic Usage:

	var it stream.Iterator[int] = stream.Range(0, 10)
	it = stream.Filter(it, func(x int) bool { return x%2 == 0 })
	it = stream.Map(it, func(x int) int { return x * x })

	result, err := stream.ToSlice(ctx, it)
	// result: [0 4 16 36 64]

Sources:

	stream.FromSlice([]string{"a", "b"})
	stream.FromChannel(ch)
	stream.FromSeq(slices.Values(items))
	stream.Generate(func() int { return rand.Int() })
	stream.Range(0, 100)
	stream.Empty[int]()

Transforms:

  - Map, TryMap, Filter and Peek work element by element
  - Flatten expands each element into the elements it contains
  - Take, Skip and Step select by position

Take never advances its source more than n times. Skip consumes nothing
until the first call to Next. Step(it, k) keeps the first element and every
k-th one after it; k must be at least 1.

Errors:

An error returned from Next belongs to a single element. TryMap and Flatten
report per-element failures this way and the iterator remains usable, so a
consumer can log the error and keep pulling. ToSlice and ForEach stop at the
first error; All yields errors alongside values.

Flatten accepts Iterator[T], iter.Seq[T], []T and any slice or array whose
element type is assignable to T. Strings and scalars produce a
*errors.NotIterableError.

Resource Management:

Always close iterators that are abandoned before exhaustion. Closing a
transform closes its source; terminal operations close for you.
*/
package stream
