package processor

import (
	"context"
)

// TransformFunc transforms a single item.
type TransformFunc[T any] func(item T) (T, error)

// Transform is a processor that applies a transformation function to each item.
// It can be used to convert, modify, or enrich records during batch processing.
type Transform[T any] struct {
	// Func is the transformation function to apply to each item.
	// If nil, items pass through unchanged.
	Func TransformFunc[T]
}

// Process implements the batch.Processor interface.
func (p *Transform[T]) Process(_ context.Context, item T) (T, error) {
	if p.Func == nil {
		return item, nil
	}
	return p.Func(item)
}
