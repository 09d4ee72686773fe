package batch

import (
	"context"
	"errors"
)

// ErrSkip is returned by a Processor to drop an item from its chunk without
// failing the run. Skipped items are never written.
var ErrSkip = errors.New("skip item")

// Reader reads items that are to be processed in chunks. Reader is strictly
// forward-only and single-pass.
type Reader[T any] interface {
	// Open acquires the underlying input. Step calls Close on every exit
	// path once Open has been attempted, so Close must tolerate a failed Open.
	Open(ctx context.Context) error

	// Read returns the next item, or io.EOF once the input is exhausted.
	Read(ctx context.Context) (T, error)

	// Offset returns the number of input units (lines for file readers)
	// consumed so far. It is recorded at chunk boundaries for restarts.
	Offset() int64

	// Close releases the input.
	Close() error
}

// Seeker is implemented by Readers that can fast-forward to an offset
// previously returned by Offset. Step uses it to resume from a checkpoint.
type Seeker interface {
	SkipTo(ctx context.Context, offset int64) error
}

// Processor transforms a single item. It must not depend on other items in
// the same chunk.
//
// Process returns the transformed item, ErrSkip to drop the item, or any
// other error to abort the run:
//
//	func (p *MyProcessor) Process(ctx context.Context, item Order) (Order, error) {
//		if item.Cancelled {
//			return item, batch.ErrSkip
//		}
//		item.Total = item.Total.Mul(p.rate)
//		return item, nil
//	}
type Processor[T any] interface {
	Process(ctx context.Context, item T) (T, error)
}

// ProcessorFunc is an adapter to allow the use of ordinary functions as
// Processors.
type ProcessorFunc[T any] func(ctx context.Context, item T) (T, error)

// Process calls f(ctx, item).
func (f ProcessorFunc[T]) Process(ctx context.Context, item T) (T, error) {
	return f(ctx, item)
}

// Writer writes chunks of processed items.
type Writer[T any] interface {
	// Open acquires the underlying output.
	Open(ctx context.Context) error

	// Write commits a whole chunk. Implementations should make the chunk
	// durable as one unit: either all of it reaches the output or none of it.
	Write(ctx context.Context, chunk []T) error

	// Close releases the output.
	Close() error
}
