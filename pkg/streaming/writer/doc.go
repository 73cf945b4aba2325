/*
Package writer drains iterators into an io.Writer as newline terminated lines.

A Writer encodes each element with an Encoder, buffers the lines and flushes
them to the destination when the buffer fills, every FlushEvery lines, on
Flush and on Close.

	w, _ := writer.New(os.Stdout, writer.JSONLines[Event]())
	n, err := w.Drain(ctx, results)

Drain closes the iterator when it returns. By default the first element error
stops it; with Config.ContinueOnError element and encoding errors are counted,
reported to OnError and skipped. Errors from the destination always stop it.

Flushes and bytes written are exported through pkg/metrics when
Config.Metrics is set.
*/
package writer
