package source

import (
	"context"
	"fmt"
	"io"
)

// Slice is a Reader over items held in memory. The offset is the number of
// items returned.
type Slice[T any] struct {
	Items []T

	pos    int
	opened bool
}

// Open implements batch.Reader.
func (s *Slice[T]) Open(_ context.Context) error {
	s.pos = 0
	s.opened = true
	return nil
}

// Read implements batch.Reader.
func (s *Slice[T]) Read(_ context.Context) (T, error) {
	var zero T
	if !s.opened {
		return zero, ErrNotOpen
	}
	if s.pos >= len(s.Items) {
		return zero, io.EOF
	}
	item := s.Items[s.pos]
	s.pos++
	return item, nil
}

// Offset implements batch.Reader.
func (s *Slice[T]) Offset() int64 {
	return int64(s.pos)
}

// SkipTo implements batch.Seeker.
func (s *Slice[T]) SkipTo(_ context.Context, offset int64) error {
	if offset < int64(s.pos) || offset > int64(len(s.Items)) {
		return fmt.Errorf("offset %d out of range [%d, %d]", offset, s.pos, len(s.Items))
	}
	s.pos = int(offset)
	return nil
}

// Close implements batch.Reader.
func (s *Slice[T]) Close() error {
	s.opened = false
	return nil
}
