package processor

import (
	"context"
	"sync/atomic"
)

// Error is a Processor that fails with Err. The first After items pass
// through unchanged; every item after that fails.
type Error[T any] struct {
	Err   error
	After int64

	seen atomic.Int64
}

// Process implements the batch.Processor interface.
func (p *Error[T]) Process(_ context.Context, item T) (T, error) {
	if p.seen.Add(1) <= p.After {
		return item, nil
	}
	return item, p.Err
}
