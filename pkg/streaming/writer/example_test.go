package writer_test

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/vnykmshr/forkflow/pkg/streaming/flow"
	"github.com/vnykmshr/forkflow/pkg/streaming/writer"
)

// Example writes the result of a sequential flow as text lines.
func Example() {
	w, err := writer.New(os.Stdout, writer.Text[int]())
	if err != nil {
		fmt.Println(err)
		return
	}

	squares := flow.FromSlice([]int{1, 2, 3}).Map(func(x int) int { return x * x })
	n, err := w.Drain(context.Background(), squares)
	fmt.Println(n, err)
	// Output:
	// 1
	// 4
	// 9
	// 3 <nil>
}

// Example_jsonLines encodes each element as one JSON document per line.
func Example_jsonLines() {
	type word struct {
		Text string `json:"text"`
		Len  int    `json:"len"`
	}

	var sb strings.Builder
	w, _ := writer.New(&sb, writer.JSONLines[word]())
	for _, s := range []string{"fork", "join"} {
		_ = w.Write(word{Text: s, Len: len(s)})
	}
	_ = w.Close()

	fmt.Print(sb.String())
	// Output:
	// {"text":"fork","len":4}
	// {"text":"join","len":4}
}
