// Package processor contains several implementations of the batch.Processor
// interface for common processing scenarios, including:
//
// - Transform: For transforming items with a function
// - Filter: For skipping items based on custom predicates
// - Error: For simulating processor failures
// - LoggingProcessor: For logging around another processor
// - StatsProcessor: For collecting statistics around another processor
// - AddPrice and SkipPriceBelow: Record processors used by flatbatch runs
//
// Processors handle one item at a time and keep no state between items.
// Returning batch.ErrSkip drops the item from its chunk.
//
// Basic usage of the Transform processor:
//
//	p := &processor.Transform[int]{Func: func(n int) (int, error) {
//	    return n * 2, nil
//	}}
//
//	out, _ := p.Process(context.Background(), 21)
//	fmt.Println(out)
//
// Output:
//
//	42
package processor
