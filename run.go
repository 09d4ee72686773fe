package flatbatch

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MasterOfBinary/flatbatch/batch"
	"github.com/MasterOfBinary/flatbatch/checkpoint"
	"github.com/MasterOfBinary/flatbatch/config"
	"github.com/MasterOfBinary/flatbatch/processor"
	"github.com/MasterOfBinary/flatbatch/record"
	"github.com/MasterOfBinary/flatbatch/sink"
	"github.com/MasterOfBinary/flatbatch/source"
)

// Option customizes a call to RunOnce.
type Option func(*options)

type options struct {
	logger     batch.Logger
	stats      batch.StatsCollector
	store      checkpoint.Store
	processors []batch.Processor[record.Record]
}

// WithLogger sets the logger used by the run and its processors.
func WithLogger(logger batch.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStats sets the statistics collector of the run.
func WithStats(stats batch.StatsCollector) Option {
	return func(o *options) {
		o.stats = stats
	}
}

// WithCheckpointStore uses store instead of the backend named in the
// configuration.
func WithCheckpointStore(store checkpoint.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithProcessors appends procs to the processors built from the
// configuration.
func WithProcessors(procs ...batch.Processor[record.Record]) Option {
	return func(o *options) {
		o.processors = append(o.processors, procs...)
	}
}

// RunOnce performs a single run described by cfg: it reads cfg.InputPath,
// applies the configured processors and writes cfg.OutputPath in chunks of
// cfg.ChunkSize records. The Result's Status is StatusCompleted when every
// record was committed and StatusFailed otherwise, with Err holding the
// reason.
//
// An invalid cfg fails with a *batch.ConfigError before any file is opened.
func RunOnce(ctx context.Context, cfg config.Config, opts ...Option) batch.Result {
	o := options{
		logger: &batch.NoOpLogger{},
		stats:  &batch.NoOpStatsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = &batch.NoOpLogger{}
	}

	if err := cfg.Validate(); err != nil {
		return configFailure(err)
	}

	procs, err := Processors(cfg, o.logger)
	if err != nil {
		return configFailure(err)
	}
	procs = append(procs, o.processors...)

	codec := NewCodec(cfg)
	mode, err := sink.ParseMode(cfg.WriteMode)
	if err != nil {
		return configFailure(err)
	}

	values := cfg.BatchValues()
	step := batch.New[record.Record](batch.NewConstantConfig(&values)).
		WithLogger(o.logger).
		WithStats(o.stats)

	store := o.store
	if store == nil {
		opened, closeStore, err := OpenCheckpointStore(ctx, cfg.Checkpoint)
		if err != nil {
			return configFailure(err)
		}
		defer func() {
			if err := closeStore(); err != nil {
				o.logger.Warn("Closing checkpoint store: %v", err)
			}
		}()
		store = opened
	}
	if store != nil {
		if mode == sink.ModeTruncate {
			return configFailure(fmt.Errorf("write mode %s cannot resume from a checkpoint", mode))
		}
		runID := cfg.Checkpoint.RunID
		if runID == "" {
			runID = uuid.NewString()
		}
		o.logger.Info("Checkpointing run %s", runID)
		step.WithCheckpoint(store, runID)
	}

	reader := source.NewRecordFile(cfg.InputPath, codec)
	writer := sink.NewRecordFile(cfg.OutputPath, codec).
		WithMode(mode).
		WithSync(cfg.Sync)

	o.logger.Info("Processing %s into %s (%s)", cfg.InputPath, cfg.OutputPath, mode)
	return step.Run(ctx, reader, writer, procs...)
}

// NewCodec returns the record codec described by cfg.
func NewCodec(cfg config.Config) *record.Codec {
	codec := record.NewCodec(cfg.Delimiter)
	if cfg.PriceScale != nil {
		codec = codec.WithScale(*cfg.PriceScale)
	}
	return codec
}

// Processors returns the record processors enabled in cfg.Transform, in
// the order skip then add.
func Processors(cfg config.Config, logger batch.Logger) ([]batch.Processor[record.Record], error) {
	var procs []batch.Processor[record.Record]

	floor, ok, err := cfg.Transform.SkipPriceFloor()
	if err != nil {
		return nil, err
	}
	if ok {
		procs = append(procs, processor.SkipPriceBelow(floor))
	}

	delta, ok, err := cfg.Transform.AddPriceDelta()
	if err != nil {
		return nil, err
	}
	if ok {
		procs = append(procs, processor.AddPrice(delta).WithLogger(logger))
	}

	return procs, nil
}

func configFailure(err error) batch.Result {
	return batch.Result{
		RunState: batch.RunState{Status: batch.StatusFailed},
		Err:      &batch.ConfigError{Err: err},
	}
}
