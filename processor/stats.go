package processor

import (
	"context"
	"errors"

	"github.com/MasterOfBinary/flatbatch/batch"
)

// StatsProcessor wraps another processor and records its outcomes in a
// StatsCollector. It is meant for a collector separate from the step's own,
// which already counts processed and skipped items for the whole chain.
type StatsProcessor[T any] struct {
	// Processor is the wrapped processor that does the actual work.
	Processor batch.Processor[T]

	// Stats is used to collect processing metrics.
	// If nil, no statistics are collected.
	Stats batch.StatsCollector
}

// Process implements the batch.Processor interface.
func (p *StatsProcessor[T]) Process(ctx context.Context, item T) (T, error) {
	if p.Processor == nil {
		return item, nil
	}
	if p.Stats == nil {
		return p.Processor.Process(ctx, item)
	}

	result, err := p.Processor.Process(ctx, item)
	switch {
	case err == nil:
		p.Stats.RecordItemProcessed()
	case errors.Is(err, batch.ErrSkip):
		p.Stats.RecordItemSkipped()
	default:
		p.Stats.RecordProcessorError()
	}
	return result, err
}

// WrapWithStats wraps a processor with statistics collection.
//
// Example:
//
//	stats := batch.NewBasicStatsCollector()
//	wrapped := processor.WrapWithStats(myProcessor, stats)
//
//	// Later, get statistics
//	currentStats := stats.GetStats()
func WrapWithStats[T any](proc batch.Processor[T], stats batch.StatsCollector) *StatsProcessor[T] {
	return &StatsProcessor[T]{
		Processor: proc,
		Stats:     stats,
	}
}
