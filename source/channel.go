package source

import (
	"context"
	"io"
)

// Channel is a Reader that reads from Input until it is closed.
//
// Channel does not close Input; the caller that created the channel owns it.
// Read blocks until an item arrives or the context is done.
type Channel[T any] struct {
	Input <-chan T

	count int64
}

// Open implements batch.Reader.
func (s *Channel[T]) Open(_ context.Context) error {
	s.count = 0
	return nil
}

// Read implements batch.Reader. It returns io.EOF once Input is closed, and
// immediately if Input is nil.
func (s *Channel[T]) Read(ctx context.Context) (T, error) {
	var zero T
	if s.Input == nil {
		return zero, io.EOF
	}

	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case item, ok := <-s.Input:
		if !ok {
			return zero, io.EOF
		}
		s.count++
		return item, nil
	}
}

// Offset implements batch.Reader.
func (s *Channel[T]) Offset() int64 {
	return s.count
}

// Close implements batch.Reader.
func (s *Channel[T]) Close() error {
	return nil
}
