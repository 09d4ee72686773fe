// Package checkpoint persists the restart position of a run at chunk
// boundaries. A Step saves a Checkpoint after every committed chunk, loads it
// when a run with the same id starts again, and clears it once the run
// completes.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Load when no checkpoint exists for a run id.
var ErrNotFound = errors.New("checkpoint not found")

// Checkpoint is the state of a run after its last committed chunk.
type Checkpoint struct {
	RunID string `json:"run_id" msgpack:"run_id"`

	// Offset is the reader offset just after the last committed chunk.
	Offset int64 `json:"offset" msgpack:"offset"`

	// Chunk is the index of the next chunk to read.
	Chunk uint64 `json:"chunk" msgpack:"chunk"`

	ChunksWritten  uint64    `json:"chunks_written" msgpack:"chunks_written"`
	RecordsRead    uint64    `json:"records_read" msgpack:"records_read"`
	RecordsSkipped uint64    `json:"records_skipped" msgpack:"records_skipped"`
	RecordsWritten uint64    `json:"records_written" msgpack:"records_written"`
	UpdatedAt      time.Time `json:"updated_at" msgpack:"updated_at"`
}

// Store persists checkpoints keyed by run id.
type Store interface {
	// Load returns the checkpoint for runID, or ErrNotFound.
	Load(ctx context.Context, runID string) (Checkpoint, error)

	// Save replaces the checkpoint for cp.RunID.
	Save(ctx context.Context, cp Checkpoint) error

	// Clear removes the checkpoint for runID. Clearing a missing checkpoint
	// is not an error.
	Clear(ctx context.Context, runID string) error
}
