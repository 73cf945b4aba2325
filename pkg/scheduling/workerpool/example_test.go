package workerpool_test

import (
	"context"
	"fmt"
	"slices"

	"github.com/vnykmshr/forkflow/pkg/scheduling/pipeline"
	"github.com/vnykmshr/forkflow/pkg/scheduling/workerpool"
	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

// Example demonstrates a parallel join over a small pipeline.
func Example() {
	p := pipeline.New[int]().
		Map(func(x int) int { return x * x }).
		Filter(func(x int) bool { return x%2 == 1 })

	out, err := workerpool.Join(stream.Range(0, 10), p, workerpool.DefaultConfig())
	if err != nil {
		fmt.Println(err)
		return
	}

	results, err := stream.ToSlice(context.Background(), out)
	if err != nil {
		fmt.Println(err)
		return
	}

	// results arrive in completion order
	slices.Sort(results)
	fmt.Println(results)

	// Output: [1 9 25 49 81]
}

// Example_errors shows that a failed item does not end the run.
func Example_errors() {
	p := pipeline.New[int]().TryMap(func(x int) (int, error) {
		if x == 2 {
			return 0, fmt.Errorf("cannot handle %d", x)
		}
		return x, nil
	})

	cfg := workerpool.DefaultConfig()
	cfg.Workers = 1

	out, _ := workerpool.Join(stream.Range(0, 4), p, cfg)
	for v, err := range stream.All(context.Background(), out) {
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(v)
	}

	// Output:
	// 0
	// 1
	// error: worker 0: stage trymap: cannot handle 2
	// 3
}

// Example_protocol shows the stop and done counts of a run.
func Example_protocol() {
	cfg := workerpool.DefaultConfig()
	cfg.Workers = 3

	out, _ := workerpool.Join(stream.Range(0, 100), nil, cfg)
	n, _ := stream.Count(context.Background(), out)

	stats := out.Stats()
	fmt.Println("results:", n)
	fmt.Println("stops:", stats.Stops, "dones:", stats.Dones)

	// Output:
	// results: 100
	// stops: 3 dones: 3
}
