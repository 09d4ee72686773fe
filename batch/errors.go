package batch

import (
	"errors"
	"fmt"
)

var (
	// ErrConcurrentRun is returned when Run is called on a Step that is
	// already running.
	ErrConcurrentRun = errors.New("concurrent calls to Step.Run are not allowed")

	// ErrSkipLimitExceeded is wrapped in a ProcessorError when processors
	// skip more items than ConfigValues.SkipLimit allows.
	ErrSkipLimitExceeded = errors.New("skip limit exceeded")

	// ErrNotSeekable is wrapped in a ConfigError when a checkpoint must be
	// resumed but the Reader does not implement Seeker.
	ErrNotSeekable = errors.New("reader cannot resume from an offset")
)

func errChunkSize(size int) error {
	return fmt.Errorf("chunk size must be positive, got %d", size)
}

// ConfigError is returned when a run cannot start: invalid config values,
// a missing reader or writer, or an input or output that cannot be opened.
type ConfigError struct {
	Err error
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("config error: %v", e.Err)
}

func (e ConfigError) Unwrap() error {
	return e.Err
}

// ReaderError is returned when the reader fails, including when a line
// cannot be decoded.
type ReaderError struct {
	Chunk  uint64
	Offset int64
	Err    error
}

func (e ReaderError) Error() string {
	return fmt.Sprintf("reader error in chunk %d at offset %d: %v", e.Chunk, e.Offset, e.Err)
}

func (e ReaderError) Unwrap() error {
	return e.Err
}

// ProcessorError is returned when a processor fails.
type ProcessorError struct {
	Chunk  uint64
	Offset int64
	Err    error
}

func (e ProcessorError) Error() string {
	return fmt.Sprintf("processor error in chunk %d at offset %d: %v", e.Chunk, e.Offset, e.Err)
}

func (e ProcessorError) Unwrap() error {
	return e.Err
}

// WriterError is returned when a chunk cannot be written or the writer
// cannot be closed.
type WriterError struct {
	Chunk  uint64
	Offset int64
	Err    error
}

func (e WriterError) Error() string {
	return fmt.Sprintf("writer error in chunk %d at offset %d: %v", e.Chunk, e.Offset, e.Err)
}

func (e WriterError) Unwrap() error {
	return e.Err
}

// CheckpointError is returned when the checkpoint store fails. The chunk it
// reports has already been written.
type CheckpointError struct {
	Chunk  uint64
	Offset int64
	Err    error
}

func (e CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint error in chunk %d at offset %d: %v", e.Chunk, e.Offset, e.Err)
}

func (e CheckpointError) Unwrap() error {
	return e.Err
}

// CanceledError is returned when the context is done at a chunk boundary.
// The chunk it reports was not written.
type CanceledError struct {
	Chunk  uint64
	Offset int64
	Err    error
}

func (e CanceledError) Error() string {
	return fmt.Sprintf("canceled before chunk %d at offset %d: %v", e.Chunk, e.Offset, e.Err)
}

func (e CanceledError) Unwrap() error {
	return e.Err
}
