package processor

import (
	"context"

	"github.com/MasterOfBinary/flatbatch/batch"
)

// FilterFunc decides whether an item should be kept.
// Return true to keep the item, false to skip it.
type FilterFunc[T any] func(item T) bool

// Filter is a processor that skips items based on a predicate function.
// Filtered items are reported with batch.ErrSkip, so they count against the
// step's skip limit.
type Filter[T any] struct {
	// Predicate returns true for items that should be kept.
	// If nil, every item is kept.
	Predicate FilterFunc[T]

	// InvertMatch inverts the predicate logic: if true, items matching the
	// predicate are skipped instead of kept.
	InvertMatch bool
}

// Process implements the batch.Processor interface.
func (p *Filter[T]) Process(_ context.Context, item T) (T, error) {
	if p.Predicate == nil {
		return item, nil
	}

	keep := p.Predicate(item)
	if p.InvertMatch {
		keep = !keep
	}
	if !keep {
		return item, batch.ErrSkip
	}
	return item, nil
}
