/*
Package pipeline provides the ordered stage list shared by sequential and
parallel forkflow runs.

# Quick Start

	p := pipeline.New[int]().
		Map(func(x int) int { return x * 2 }).
		Filter(func(x int) bool { return x > 10 })

	it, err := p.Apply(stream.FromSlice(values))
	if err != nil {
		return err // a recorded builder error, e.g. Step(0)
	}
	out, err := stream.ToSlice(ctx, it)

# Stages

Built-in stages cover map, trymap, filter, flatten, take, skip and step.
Custom stages wrap an iterator directly:

	p.AddStage(pipeline.NewStageFunc("dedupe", func(src stream.Iterator[string]) stream.Iterator[string] {
		seen := map[string]bool{}
		return stream.Filter(src, func(s string) bool {
			if seen[s] {
				return false
			}
			seen[s] = true
			return true
		})
	}))

Map, TryMap, Filter and Flatten are stateless and may be replicated across
workers. Take, Skip, Step and custom stages depend on element positions and
only make sense on a single stream.

# Freezing

The first Apply freezes the pipeline. Later AddStage calls return
errors.ErrPipelineFrozen, and the chain helpers record it for Err.

# Panics

Apply lets panics from stage callbacks propagate. ApplyRecover turns them into
a *errors.StageError for the element that caused them; workers use it.
*/
package pipeline
