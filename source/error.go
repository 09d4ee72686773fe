package source

import (
	"context"
	"io"
)

// Error is a Reader that returns Items and then fails with Err instead of
// io.EOF. It is useful for testing how a step handles reader failures.
// If Err is nil it behaves like Slice.
type Error[T any] struct {
	Items []T
	Err   error

	// CloseErr, if set, is returned by Close.
	CloseErr error

	pos int
}

// Open implements batch.Reader.
func (s *Error[T]) Open(_ context.Context) error {
	s.pos = 0
	return nil
}

// Read implements batch.Reader.
func (s *Error[T]) Read(_ context.Context) (T, error) {
	var zero T
	if s.pos < len(s.Items) {
		item := s.Items[s.pos]
		s.pos++
		return item, nil
	}
	if s.Err != nil {
		return zero, s.Err
	}
	return zero, io.EOF
}

// Offset implements batch.Reader.
func (s *Error[T]) Offset() int64 {
	return int64(s.pos)
}

// Close implements batch.Reader.
func (s *Error[T]) Close() error {
	return s.CloseErr
}
