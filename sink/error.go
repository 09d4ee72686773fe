package sink

import (
	"context"
)

// Error is a Writer that commits the first After chunks to Next and fails
// every later chunk with Err. With a nil Err every chunk is committed. It is useful for testing how a step handles
// writer failures.
type Error[T any] struct {
	// Next receives the chunks written before the failure. If nil, they are
	// discarded.
	Next *Collect[T]

	Err   error
	After int

	// OpenErr and CloseErr, if set, are returned by Open and Close.
	OpenErr  error
	CloseErr error

	// Closed reports whether Close has been called.
	Closed bool

	written int
}

// Open implements batch.Writer.
func (w *Error[T]) Open(_ context.Context) error {
	return w.OpenErr
}

// Write implements batch.Writer.
func (w *Error[T]) Write(ctx context.Context, chunk []T) error {
	if w.Err != nil && w.written >= w.After {
		return w.Err
	}
	w.written++
	if w.Next != nil {
		return w.Next.Write(ctx, chunk)
	}
	return nil
}

// Close implements batch.Writer.
func (w *Error[T]) Close() error {
	w.Closed = true
	return w.CloseErr
}
