package sink

import (
	"context"
	"sync"
)

// Collect is a Writer that keeps every committed chunk in memory.
//
// It is useful for capturing results from a step in tests or when the step
// is embedded in another program. Collect is safe for concurrent use.
type Collect[T any] struct {
	mu     sync.Mutex
	chunks [][]T
}

// Open implements batch.Writer.
func (c *Collect[T]) Open(_ context.Context) error {
	return nil
}

// Write implements batch.Writer by storing a copy of chunk.
func (c *Collect[T]) Write(_ context.Context, chunk []T) error {
	stored := make([]T, len(chunk))
	copy(stored, chunk)

	c.mu.Lock()
	c.chunks = append(c.chunks, stored)
	c.mu.Unlock()
	return nil
}

// Close implements batch.Writer.
func (c *Collect[T]) Close() error {
	return nil
}

// Chunks returns the committed chunks in commit order.
func (c *Collect[T]) Chunks() [][]T {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([][]T, len(c.chunks))
	copy(out, c.chunks)
	return out
}

// Items returns all committed items in commit order.
func (c *Collect[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []T
	for _, chunk := range c.chunks {
		out = append(out, chunk...)
	}
	return out
}
