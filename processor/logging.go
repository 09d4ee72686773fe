package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/MasterOfBinary/flatbatch/batch"
)

// LoggingProcessor wraps another processor and logs its outcome for every item.
// Successful and skipped items are logged at debug level, failures at error level.
type LoggingProcessor[T any] struct {
	// Processor is the wrapped processor that does the actual work.
	Processor batch.Processor[T]

	// Logger is used to log processing events.
	// If nil, no logging occurs.
	Logger batch.Logger

	// Name is an optional name for this processor used in log messages.
	// If empty, the wrapped processor's type is used.
	Name string
}

// Process implements the batch.Processor interface.
func (p *LoggingProcessor[T]) Process(ctx context.Context, item T) (T, error) {
	if p.Processor == nil {
		return item, nil
	}
	if p.Logger == nil {
		return p.Processor.Process(ctx, item)
	}

	name := p.Name
	if name == "" {
		name = fmt.Sprintf("%T", p.Processor)
	}

	result, err := p.Processor.Process(ctx, item)
	switch {
	case err == nil:
		p.Logger.Debug("Processor '%s' processed %v", name, result)
	case errors.Is(err, batch.ErrSkip):
		p.Logger.Debug("Processor '%s' skipped %v", name, item)
	default:
		p.Logger.Error("Processor '%s' failed on %v: %v", name, item, err)
	}
	return result, err
}

// WrapWithLogging wraps a processor with logging capabilities.
//
// Example:
//
//	logger := batch.NewSimpleLogger(batch.LogLevelDebug)
//	wrapped := processor.WrapWithLogging(myProcessor, logger, "MyProcessor")
func WrapWithLogging[T any](proc batch.Processor[T], logger batch.Logger, name string) *LoggingProcessor[T] {
	return &LoggingProcessor[T]{
		Processor: proc,
		Logger:    logger,
		Name:      name,
	}
}
