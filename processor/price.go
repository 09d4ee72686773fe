package processor

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/MasterOfBinary/flatbatch/batch"
	"github.com/MasterOfBinary/flatbatch/record"
)

// PriceAdjuster adds a constant to the price of every record.
type PriceAdjuster struct {
	delta  decimal.Decimal
	logger batch.Logger
}

// AddPrice returns a processor that adds delta to each record's price.
// The addition is exact; the result keeps the larger scale of the two
// operands.
func AddPrice(delta decimal.Decimal) *PriceAdjuster {
	return &PriceAdjuster{
		delta:  delta,
		logger: &batch.NoOpLogger{},
	}
}

// WithLogger sets the logger used to report each updated price.
func (p *PriceAdjuster) WithLogger(logger batch.Logger) *PriceAdjuster {
	if logger == nil {
		logger = &batch.NoOpLogger{}
	}
	p.logger = logger
	return p
}

// Process implements the batch.Processor interface.
func (p *PriceAdjuster) Process(_ context.Context, r record.Record) (record.Record, error) {
	r.Price = r.Price.Add(p.delta)
	p.logger.Debug("Updated price of record %s to %s", r.ID, r.Get(record.FieldPrice))
	return r, nil
}

// SkipPriceBelow returns a processor that skips records priced below floor.
func SkipPriceBelow(floor decimal.Decimal) *Filter[record.Record] {
	return &Filter[record.Record]{
		Predicate: func(r record.Record) bool {
			return !r.Price.LessThan(floor)
		},
	}
}
