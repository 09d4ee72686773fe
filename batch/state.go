package batch

// Status is the state of a Step.
//
//	Idle -> Running -> Completed
//	                -> Failed
type Status int

const (
	// StatusIdle means Run has not been called yet.
	StatusIdle Status = iota
	// StatusRunning means a run is in progress.
	StatusRunning
	// StatusCompleted means the last run read its input to the end and committed every chunk.
	StatusCompleted
	// StatusFailed means the last run stopped on an error or cancellation.
	StatusFailed
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RunState is the progress of a run. It is created when Run starts, mutated
// only by the Step and returned in the Result.
type RunState struct {
	Status Status

	// Offset is the number of input units the reader has consumed.
	Offset int64

	// Chunk is the index of the chunk being read, or the next one between chunks.
	Chunk uint64

	// ChunksWritten is the number of chunks committed by the writer.
	ChunksWritten uint64

	RecordsRead    uint64
	RecordsSkipped uint64
	RecordsWritten uint64
}

// Result is returned by Run. Err is nil when Status is StatusCompleted and
// otherwise holds one of ConfigError, ReaderError, ProcessorError,
// WriterError, CheckpointError or CanceledError.
type Result struct {
	RunState
	Err error
}
