package batch

import "github.com/MasterOfBinary/flatbatch/checkpoint"

// Options contains optional configuration for creating a new Step.
type Options struct {
	// Config provides the chunk configuration.
	// If nil, Run fails with a ConfigError.
	Config Config

	// Logger receives run and chunk progress. If nil, nothing is logged.
	Logger Logger

	// Stats collects metrics. If nil, no statistics are collected.
	Stats StatsCollector

	// Checkpoint, when set together with RunID, makes the run restartable.
	Checkpoint checkpoint.Store

	// RunID keys the checkpoint of this run.
	RunID string
}

// NewWithOptions creates a new Step with the given options.
//
// Example:
//
//	step := batch.NewWithOptions[record.Record](&batch.Options{
//		Config: batch.NewConstantConfig(&batch.ConfigValues{
//			ChunkSize: 100,
//		}),
//		Logger:     batch.NewSimpleLogger(batch.LogLevelInfo),
//		Checkpoint: checkpoint.NewMemory(),
//		RunID:      "products-2024-05-01",
//	})
func NewWithOptions[T any](opts *Options) *Step[T] {
	if opts == nil {
		opts = &Options{}
	}

	s := New[T](opts.Config)
	s.logger = opts.Logger
	s.stats = opts.Stats
	if opts.Checkpoint != nil {
		s.store = opts.Checkpoint
		s.runID = opts.RunID
	}
	return s
}
