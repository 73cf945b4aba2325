package stream_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/vnykmshr/forkflow/pkg/streaming/stream"
)

func ExampleFromSlice() {
	ctx := context.Background()

	result, _ := stream.ToSlice(ctx, stream.FromSlice([]string{"apple", "banana", "cherry"}))
	fmt.Println(result)
	// Output: [apple banana cherry]
}

func ExampleMap() {
	ctx := context.Background()

	squares := stream.Map(stream.Range(1, 5), func(x int) int { return x * x })
	result, _ := stream.ToSlice(ctx, squares)
	fmt.Println(result)
	// Output: [1 4 9 16]
}

func ExampleTryMap() {
	ctx := context.Background()

	parsed := stream.TryMap(stream.FromSlice([]string{"1", "x", "3"}), func(s string) (string, error) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return "", errors.New("not a number: " + s)
		}
		return strconv.Itoa(n * 100), nil
	})

	for v, err := range stream.All(ctx, parsed) {
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		fmt.Println(v)
	}
	// Output:
	// 100
	// error: not a number: x
	// 300
}

func ExampleFlatten() {
	ctx := context.Background()

	nested := stream.FromSlice([]any{[]int{}, []int{1, 2}, []int{}, []int{3}})
	result, _ := stream.ToSlice(ctx, stream.Flatten(nested))
	fmt.Println(result)
	// Output: [1 2 3]
}

func ExampleStep() {
	ctx := context.Background()

	it, err := stream.Step(stream.Range(0, 10), 3)
	if err != nil {
		fmt.Println(err)
		return
	}
	result, _ := stream.ToSlice(ctx, it)
	fmt.Println(result)
	// Output: [0 3 6 9]
}

func ExampleTake() {
	ctx := context.Background()

	counter := 0
	naturals := stream.Generate(func() int {
		counter++
		return counter
	})

	result, _ := stream.ToSlice(ctx, stream.Take(naturals, 3))
	fmt.Println(result)
	fmt.Println("generated:", counter)
	// Output:
	// [1 2 3]
	// generated: 3
}
